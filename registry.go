// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"fmt"
	"os"
	"sync"

	"github.com/bookie-io/entrylog/segment"
	"github.com/bookie-io/entrylog/types"
)

// registry is the Segment Registry: a concurrent map from segmentId to
// open Buffered Channel. It owns the lifetime of every channel it
// holds, including the currently active one, which the Store also
// tracks directly to serialize writes.
type registry struct {
	dirs []string

	mu       sync.Mutex
	channels map[uint64]*segment.Channel
}

func newRegistry(dirs []string) *registry {
	return &registry{
		dirs:     dirs,
		channels: make(map[uint64]*segment.Channel),
	}
}

// register installs a freshly created channel (e.g. the new active
// segment after a rollover) under segmentID, unconditionally.
func (r *registry) register(segmentID uint64, ch *segment.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[segmentID] = ch
}

// get resolves segmentID's channel with double-checked insertion:
// fast-path lookup, then on a miss locate and open the file off the map
// lock, then re-check under lock before installing, discarding
// (closing) a handle that lost a race against a concurrent opener of
// the same id.
func (r *registry) get(segmentID uint64) (*segment.Channel, error) {
	r.mu.Lock()
	ch, ok := r.channels[segmentID]
	r.mu.Unlock()
	if ok {
		return ch, nil
	}

	path, found := segmentPath(r.dirs, segmentID)
	if !found {
		return nil, &types.NotFoundError{SegmentID: uint32(segmentID)}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("entrylog: opening segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("entrylog: stat segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
	}
	opened := segment.Open(f, fi.Size(), segment.ReadBufferSize)

	r.mu.Lock()
	defer r.mu.Unlock()
	if winner, ok := r.channels[segmentID]; ok {
		// Another goroutine raced us and won; discard our handle.
		opened.Close()
		return winner, nil
	}
	r.channels[segmentID] = opened
	return opened, nil
}

// evict removes segmentID from the registry and returns its channel
// without closing it. The caller must close the channel before
// unlinking the file, so removal works on hosts that lock open files.
func (r *registry) evict(segmentID uint64) (*segment.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[segmentID]
	if ok {
		delete(r.channels, segmentID)
	}
	return ch, ok
}

// closeAll closes every open channel, used during shutdown.
func (r *registry) closeAll() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for id, ch := range r.channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing segment %x: %w", id, err))
		}
	}
	r.channels = make(map[uint64]*segment.Channel)
	return errs
}
