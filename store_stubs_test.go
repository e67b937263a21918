// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
)

// fakeActiveLedgerManager is a test double for types.ActiveLedgerManager: it
// treats every ledgerId present in active as live and everything else as
// garbage-collectable.
type fakeActiveLedgerManager struct {
	mu     sync.Mutex
	active map[uint64]struct{}
}

func newFakeActiveLedgerManager(active ...uint64) *fakeActiveLedgerManager {
	m := &fakeActiveLedgerManager{active: make(map[uint64]struct{})}
	for _, id := range active {
		m.active[id] = struct{}{}
	}
	return m
}

func (m *fakeActiveLedgerManager) deactivate(ledgerID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, ledgerID)
}

func (m *fakeActiveLedgerManager) ContainsActiveLedger(ledgerID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[ledgerID]
	return ok
}

// GarbageCollectLedgers isn't exercised directly by the store tests below
// (they drive GC through ContainsActiveLedger), so it's a no-op that never
// reports any ledger dead on its own.
func (m *fakeActiveLedgerManager) GarbageCollectLedgers(callback func(ledgerID uint64)) error {
	return nil
}

// fakeLedgerIndex is a test double for types.LedgerIndex that just records
// which ledgerIds were told to be deleted.
type fakeLedgerIndex struct {
	mu      sync.Mutex
	deleted []uint64
}

func (l *fakeLedgerIndex) DeleteLedger(ledgerID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, ledgerID)
	return nil
}

// fakeCoordinationClient is a test double for types.CoordinationClient whose
// readiness a test can flip at will.
type fakeCoordinationClient struct {
	ready atomic.Bool
}

func newFakeCoordinationClient(ready bool) *fakeCoordinationClient {
	c := &fakeCoordinationClient{}
	c.ready.Store(ready)
	return c
}

func (c *fakeCoordinationClient) Ready() bool {
	return c.ready.Load()
}

// encodePayload builds the on-disk payload shape by hand:
// big-endian ledgerID, then big-endian entryID, then the data.
func encodePayload(ledgerID, entryID uint64, data string) []byte {
	buf := make([]byte, 16+len(data))
	binary.BigEndian.PutUint64(buf[0:8], ledgerID)
	binary.BigEndian.PutUint64(buf[8:16], entryID)
	copy(buf[16:], data)
	return buf
}
