// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"errors"
	"io"
	"os"
	"sync"
)

const (
	// WriteBufferSize is the in-memory buffer size used for the active
	// write channel.
	WriteBufferSize = 64 * 1024

	// ReadBufferSize is the in-memory buffer size used for channels
	// opened purely for random-access reads.
	ReadBufferSize = 8 * 1024
)

// Channel is a write-behind buffered channel over a random-access file.
// It implements the contract described for the Buffered Channel
// component: writes accumulate in memory and flush to the file once the
// buffer fills or Flush is called explicitly; reads are served
// correctly whether the requested bytes have been flushed or not.
type Channel struct {
	mu   sync.Mutex
	file *os.File

	bufSize int
	buf     []byte
	// flushed is the file offset up to which buf has already been
	// written out; flushed+len(buf) is the logical end of the channel.
	flushed int64

	closed bool
}

// Open wraps f in a Channel whose logical position starts at size (the
// current length of the underlying file, i.e. the channel is positioned
// at end-of-file the way the Segment Registry requires when it opens a
// segment for reuse).
func Open(f *os.File, size int64, bufSize int) *Channel {
	return &Channel{
		file:    f,
		bufSize: bufSize,
		flushed: size,
	}
}

// Write appends p to the in-memory buffer, flushing to the underlying
// file (without forcing durability) once the buffer reaches bufSize.
func (c *Channel) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return os.ErrClosed
	}
	c.buf = append(c.buf, p...)
	if len(c.buf) >= c.bufSize {
		return c.flushLocked(false)
	}
	return nil
}

// Position returns the logical end-of-stream offset, including bytes
// still sitting in the write buffer.
func (c *Channel) Position() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushed + int64(len(c.buf))
}

// Size returns the logical size of the channel's contents, identical to
// Position for an append-only channel.
func (c *Channel) Size() int64 {
	return c.Position()
}

// ReadAt reads len(dst) bytes starting at pos, serving bytes from the
// write buffer when pos falls past what's been flushed to disk. It
// returns the number of bytes actually read.
func (c *Channel) ReadAt(dst []byte, pos int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.flushed + int64(len(c.buf))
	if pos >= total {
		return 0, io.EOF
	}

	want := int64(len(dst))
	if pos+want > total {
		want = total - pos
	}

	n := 0
	if pos < c.flushed {
		fileWant := c.flushed - pos
		if fileWant > want {
			fileWant = want
		}
		rn, err := c.file.ReadAt(dst[:fileWant], pos)
		n += rn
		if err != nil && !(errors.Is(err, io.EOF) && int64(rn) == fileWant) {
			return n, err
		}
		pos += int64(rn)
		want -= int64(rn)
	}

	if want > 0 && pos >= c.flushed {
		bufOff := pos - c.flushed
		copied := copy(dst[n:int64(n)+want], c.buf[bufOff:])
		n += copied
	}

	return n, nil
}

// Flush drains the write buffer to the underlying file. If durable is
// true it also forces an fsync.
func (c *Channel) Flush(durable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked(durable)
}

func (c *Channel) flushLocked(durable bool) error {
	if len(c.buf) > 0 {
		n, err := c.file.WriteAt(c.buf, c.flushed)
		c.flushed += int64(n)
		c.buf = c.buf[:0]
		if err != nil {
			return err
		}
	}
	if durable {
		return c.file.Sync()
	}
	return nil
}

// Close flushes any buffered bytes and releases the underlying file
// handle.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.flushLocked(false); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}
