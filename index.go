// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
)

// LedgerSet is the set of ledgerIds whose entries appear in a segment.
type LedgerSet map[uint64]struct{}

// without returns a copy of s with ledgerID removed, or s itself when
// the ledger wasn't present.
func (s LedgerSet) without(ledgerID uint64) (LedgerSet, bool) {
	if _, ok := s[ledgerID]; !ok {
		return s, false
	}
	next := make(LedgerSet, len(s)-1)
	for k := range s {
		if k != ledgerID {
			next[k] = struct{}{}
		}
	}
	return next, true
}

// segmentIndex is the segment -> ledger-set index: an immutable
// snapshot swapped under an atomic.Value. Readers never block on
// writers, and the handful of mutators (recovery scanner, GC) serialize
// with each other via mu.
type segmentIndex struct {
	mu sync.Mutex
	v  atomic.Value // *immutable.SortedMap[uint64, LedgerSet]
}

func newSegmentIndex() *segmentIndex {
	si := &segmentIndex{}
	si.v.Store(&immutable.SortedMap[uint64, LedgerSet]{})
	return si
}

func (si *segmentIndex) snapshot() *immutable.SortedMap[uint64, LedgerSet] {
	return si.v.Load().(*immutable.SortedMap[uint64, LedgerSet])
}

// install sets (overwrites) the ledger set for segmentID. Used by the
// Recovery Scanner after scanning a sealed segment.
func (si *segmentIndex) install(segmentID uint64, set LedgerSet) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.v.Store(si.snapshot().Set(segmentID, set))
}

// has reports whether segmentID has been scanned into the index.
func (si *segmentIndex) has(segmentID uint64) bool {
	_, ok := si.snapshot().Get(segmentID)
	return ok
}

// ledgers returns the ledger set for segmentID, if scanned.
func (si *segmentIndex) ledgers(segmentID uint64) (LedgerSet, bool) {
	return si.snapshot().Get(segmentID)
}

// removeLedgerIfDead removes every ledger isActive rejects from every
// segment's set. It returns the ids of segments whose sets are empty
// afterward; their entries stay in the index until the caller has
// unlinked the files and calls deleteSegment.
func (si *segmentIndex) removeLedgerIfDead(isActive func(ledgerID uint64) bool) []uint64 {
	si.mu.Lock()
	defer si.mu.Unlock()

	cur := si.snapshot()
	emptied := make([]uint64, 0)

	it := cur.Iterator()
	for !it.Done() {
		segmentID, set, _ := it.Next()
		changed := false
		next := set
		for ledgerID := range set {
			if !isActive(ledgerID) {
				n, removed := next.without(ledgerID)
				if removed {
					next = n
					changed = true
				}
			}
		}
		if changed {
			cur = cur.Set(segmentID, next)
		}
		if len(next) == 0 {
			emptied = append(emptied, segmentID)
		}
	}
	si.v.Store(cur)
	return emptied
}

// deleteSegment removes segmentID's entry from the index entirely (used
// once the segment file itself has been unlinked).
func (si *segmentIndex) deleteSegment(segmentID uint64) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.v.Store(si.snapshot().Delete(segmentID))
}

// unscannedBelow returns every segment id in [0, activeSegmentID) that
// is not yet present in the index, ascending.
func (si *segmentIndex) unscannedBelow(activeSegmentID uint64) []uint64 {
	snap := si.snapshot()
	out := make([]uint64, 0, activeSegmentID)
	for id := uint64(0); id < activeSegmentID; id++ {
		if _, ok := snap.Get(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

func (si *segmentIndex) len() int {
	return si.snapshot().Len()
}
