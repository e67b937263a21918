// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package entrylog implements the entry log store: the on-disk
// append-only segment writer and reader that backs a bookie's ledger
// entries, its rolling-segment lifecycle, recovery scanner and
// background garbage collector.
package entrylog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookie-io/entrylog/segment"
	"github.com/bookie-io/entrylog/types"
)

// ErrClosed is returned by AddEntry, Flush and ReadEntry when invoked
// after Close.
var ErrClosed = errors.New("entrylog: store is closed")

// Store is the entry log store. It wires together the segment writer,
// segment registry, directory manager, recovery scanner and garbage
// collector into a single handle a bookie opens once per data
// directory set.
type Store struct {
	cfg Config

	logger  log.Logger
	reg     prometheus.Registerer
	metrics *entrylogMetrics

	registry *registry
	idx      *segmentIndex

	// writeMu serializes AddEntry, Flush and rollover. Readers and
	// TestAndClearSomethingWritten (which works on the atomic dirty
	// flag) never take it.
	writeMu  sync.Mutex
	activeID uint64
	active   *segment.Channel
	dirty    atomic.Bool

	activeLedgers types.ActiveLedgerManager
	ledgerIndex   types.LedgerIndex
	coordination  types.CoordinationClient

	gc     *gc
	closed atomic.Bool
}

// Open opens (or initializes) an entry log store over cfg.LedgerDirs.
// If no prior segments exist, it creates segment 0; otherwise it scans
// existing sealed segments to rebuild the segment-to-ledger-set index
// and creates a fresh active segment one past the highest id it found.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	s := &Store{
		cfg:    cfg,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newEntrylogMetrics(s.reg)
	s.registry = newRegistry(cfg.LedgerDirs)
	s.idx = newSegmentIndex()

	lastID, found, err := loadLastSegmentID(cfg.LedgerDirs)
	if err != nil {
		return nil, err
	}
	nextID := uint64(0)
	if found {
		nextID = lastID + 1
	}

	recoverUnscanned(s.registry, s.idx, nextID, s.logger)

	if err := s.createActiveSegment(nextID); err != nil {
		return nil, err
	}

	s.gc = newGC(s, cfg.GCWaitTime)
	s.gc.start()

	return s, nil
}

// createActiveSegment creates (or reopens, if a prior crash left a
// partially created file of that id behind) segmentID as the new active
// segment, writes its header if it's empty, installs it in the registry
// and persists the lastId marker across every configured directory.
func (s *Store) createActiveSegment(segmentID uint64) error {
	dir := pickDirectory(s.cfg.LedgerDirs)
	path := filepath.Join(dir, segmentFileName(segmentID))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("entrylog: creating segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("entrylog: stat segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
	}

	ch := segment.Open(f, fi.Size(), segment.WriteBufferSize)
	if fi.Size() == 0 {
		if err := ch.Write(segment.NewHeader()); err != nil {
			ch.Close()
			return fmt.Errorf("entrylog: writing header for segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
		}
		if err := ch.Flush(true); err != nil {
			ch.Close()
			return fmt.Errorf("entrylog: flushing header for segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
		}
	}

	s.registry.register(segmentID, ch)
	s.activeID = segmentID
	s.active = ch

	if err := persistLastID(s.cfg.LedgerDirs, segmentID); err != nil {
		return fmt.Errorf("entrylog: persisting lastId for segment %x: %w: %v", segmentID, types.ErrIOFailure, err)
	}

	s.metrics.segmentRollovers.Inc()
	return nil
}

// AddEntry appends an entry for (ledgerID, entryID) with the given
// opaque payload to the active segment, rolling over to a new segment
// first if the append would cross the configured size limit. It
// returns the location the entry can later be read back with.
func (s *Store) AddEntry(ledgerID, entryID uint64, data []byte) (Location, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.metrics.appends.Inc()
	if s.closed.Load() {
		return 0, ErrClosed
	}

	frame := segment.EncodeFrame(ledgerID, entryID, data)

	bodyPos := s.active.Position() - segment.HeaderSize
	if bodyPos+int64(len(frame)) > s.cfg.EntryLogSizeLimit {
		if err := s.rolloverLocked(); err != nil {
			return 0, err
		}
	}

	frameStart := s.active.Position()
	if err := s.active.Write(frame); err != nil {
		return 0, fmt.Errorf("entrylog: appending to segment %x: %w: %v", s.activeID, types.ErrIOFailure, err)
	}
	s.dirty.Store(true)

	s.metrics.entriesWritten.Inc()
	s.metrics.bytesWritten.Add(float64(len(data)))
	s.metrics.activeSegmentBytes.Set(float64(s.active.Size()))

	offset := frameStart + int64(segment.LengthPrefixWidth)
	return NewLocation(s.activeID, uint32(offset)), nil
}

// rolloverLocked flushes the current active segment durably, creates
// the next one, then folds any sealed-but-unscanned segments (including
// the one just retired) into the index. writeMu must already be held.
func (s *Store) rolloverLocked() error {
	if err := s.active.Flush(true); err != nil {
		return fmt.Errorf("entrylog: flushing segment %x before rollover: %w: %v", s.activeID, types.ErrIOFailure, err)
	}

	newID := s.activeID + 1
	if err := s.createActiveSegment(newID); err != nil {
		return err
	}

	recoverUnscanned(s.registry, s.idx, newID, s.logger)
	return nil
}

// Flush forces all buffered writes of the active segment to durable
// storage.
func (s *Store) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.active.Flush(true)
}

// TestAndClearSomethingWritten returns and resets the "dirty since last
// flush" flag. The set (in AddEntry) and this clear are not mutually
// locked; a sync thread observing false may miss a write that raced the
// clear until its next poll.
func (s *Store) TestAndClearSomethingWritten() bool {
	return s.dirty.Swap(false)
}

// ReadEntry resolves loc back to the payload originally appended for
// (ledgerID, entryID), failing with an IdentityMismatchError if the
// frame at loc belongs to a different entry.
func (s *Store) ReadEntry(ledgerID, entryID uint64, loc Location) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	segmentID := loc.SegmentID()
	offset := int64(loc.Offset())

	ch, err := s.registry.get(segmentID)
	if err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			nf.LedgerID = ledgerID
			nf.Location = uint64(loc)
			return nil, nf
		}
		return nil, err
	}

	lenBuf := make([]byte, segment.LengthPrefixWidth)
	n, err := ch.ReadAt(lenBuf, offset-int64(segment.LengthPrefixWidth))
	if err != nil || n < len(lenBuf) {
		return nil, &types.ShortReadError{Wanted: len(lenBuf), Got: n}
	}
	frameLen := segment.DecodeLength(lenBuf)
	if frameLen > segment.MaxEntrySize {
		level.Warn(s.logger).Log("msg", "decoded frame length exceeds sanity bound", "segment", segmentID, "len", frameLen)
	}

	payload := make([]byte, frameLen)
	n, err = ch.ReadAt(payload, offset)
	if err != nil || n < len(payload) {
		return nil, &types.ShortReadError{Wanted: len(payload), Got: n}
	}

	gotLedger, gotEntry := segment.DecodeIdentity(payload)
	if gotLedger != ledgerID || gotEntry != entryID {
		return nil, &types.IdentityMismatchError{
			WantLedgerID: ledgerID,
			WantEntryID:  entryID,
			GotLedgerID:  gotLedger,
			GotEntryID:   gotEntry,
		}
	}

	data := payload[segment.IdentityWidth:]
	s.metrics.entriesRead.Inc()
	s.metrics.entryBytesRead.Add(float64(len(data)))
	return data, nil
}

// Stats is a read-only snapshot useful for tests and operators.
type Stats struct {
	ActiveSegmentID uint64
	IndexedSegments int
	IndexedLedgers  int
}

// Stats returns a snapshot of the store's current state.
func (s *Store) Stats() Stats {
	s.writeMu.Lock()
	activeID := s.activeID
	s.writeMu.Unlock()

	snap := s.idx.snapshot()
	ledgers := make(map[uint64]struct{})
	it := snap.Iterator()
	for !it.Done() {
		_, set, _ := it.Next()
		for l := range set {
			ledgers[l] = struct{}{}
		}
	}
	return Stats{
		ActiveSegmentID: activeID,
		IndexedSegments: snap.Len(),
		IndexedLedgers:  len(ledgers),
	}
}

// Close stops and joins the garbage collector, then flushes the active
// segment durably and closes every open segment channel. Flush errors
// during shutdown are logged and swallowed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.gc.stop()

	s.writeMu.Lock()
	if err := s.active.Flush(true); err != nil {
		level.Error(s.logger).Log("msg", "error flushing active segment during shutdown", "segment", s.activeID, "err", err)
	}
	s.writeMu.Unlock()

	for _, err := range s.registry.closeAll() {
		level.Error(s.logger).Log("msg", "error closing segment channel during shutdown", "err", err)
	}

	return nil
}
