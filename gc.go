// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/go-kit/log/level"
)

// gc is the background garbage collector actor. It owns no state beyond
// references into the Store it serves, and is driven by a timer plus a
// cooperative shutdown signal.
type gc struct {
	store     *Store
	interval  time.Duration
	running   atomic.Bool
	interrupt chan struct{}
	done      chan struct{}
}

func newGC(store *Store, interval time.Duration) *gc {
	g := &gc{
		store:     store,
		interval:  interval,
		interrupt: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	g.running.Store(true)
	return g
}

func (g *gc) start() {
	go g.run()
}

// stop sets running to false, interrupts the wait loop and blocks until
// the goroutine has exited.
func (g *gc) stop() {
	g.running.Store(false)
	select {
	case g.interrupt <- struct{}{}:
	default:
	}
	<-g.done
}

func (g *gc) run() {
	defer close(g.done)
	timer := time.NewTimer(g.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if !g.running.Load() {
				return
			}
			g.runCycle()
			timer.Reset(g.interval)
		case <-g.interrupt:
			// Interruption of the wait is a spurious wake unless we were
			// asked to stop; either way the cycle itself is skipped.
			if !g.running.Load() {
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(g.interval)
		}
	}
}

func (g *gc) runCycle() {
	s := g.store

	if s.coordination == nil || !s.coordination.Ready() {
		return
	}
	if s.activeLedgers == nil || s.ledgerIndex == nil {
		return
	}
	if s.idx.len() == 0 {
		return
	}

	start := time.Now()
	defer func() {
		s.metrics.gcCycles.Inc()
		s.metrics.gcCycleDuration.Observe(time.Since(start).Seconds())
	}()

	g.collectDeadLedgers()
	g.collectDeadSegments()
}

// collectDeadLedgers asks the active ledger manager to enumerate dead
// ledgers and invokes the ledger index's per-ledger delete callback for
// each. I/O errors are logged and the next ledger is attempted.
func (g *gc) collectDeadLedgers() {
	s := g.store
	err := s.activeLedgers.GarbageCollectLedgers(func(ledgerID uint64) {
		if err := s.ledgerIndex.DeleteLedger(ledgerID); err != nil {
			level.Error(s.logger).Log("msg", "ledger index delete failed, skipping", "ledger", ledgerID, "err", err)
			return
		}
		s.metrics.gcLedgersDeleted.Inc()
	})
	if err != nil {
		level.Error(s.logger).Log("msg", "active ledger manager gc enumeration failed", "err", err)
	}
}

// collectDeadSegments prunes dead ledgers from every segment's set and
// deletes any segment whose set becomes empty.
func (g *gc) collectDeadSegments() {
	s := g.store

	emptied := s.idx.removeLedgerIfDead(func(ledgerID uint64) bool {
		return s.activeLedgers.ContainsActiveLedger(ledgerID)
	})

	for _, segmentID := range emptied {
		g.deleteSegment(segmentID)
	}
}

func (g *gc) deleteSegment(segmentID uint64) {
	s := g.store

	if ch, ok := s.registry.evict(segmentID); ok {
		if err := ch.Close(); err != nil {
			level.Error(s.logger).Log("msg", "failed to close segment channel before gc unlink", "segment", segmentID, "err", err)
		}
	}

	path, found := segmentPath(s.cfg.LedgerDirs, segmentID)
	if !found {
		// Already gone; still drop it from the index below.
		s.idx.deleteSegment(segmentID)
		return
	}
	if err := os.Remove(path); err != nil {
		level.Error(s.logger).Log("msg", "failed to unlink dead segment", "segment", segmentID, "path", path, "err", err)
		return
	}
	s.idx.deleteSegment(segmentID)
	s.metrics.gcSegmentsDeleted.Inc()
}
