// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package types

// LedgerIndex is the external ledger index (a.k.a. ledger cache). It
// persists (ledgerId, entryId) -> location mappings outside this
// package; the only thing the entry log store needs from it is the
// per-ledger GC callback.
type LedgerIndex interface {
	// DeleteLedger performs best-effort ledger-local cleanup when a
	// ledger is confirmed dead. May return an IoError-wrapped error,
	// which the garbage collector logs and skips.
	DeleteLedger(ledgerID uint64) error
}

// ActiveLedgerManager is the external authority on ledger liveness.
type ActiveLedgerManager interface {
	// GarbageCollectLedgers invokes callback once for every ledger the
	// manager no longer considers live.
	GarbageCollectLedgers(callback func(ledgerID uint64)) error

	// ContainsActiveLedger reports whether ledgerID is still live.
	ContainsActiveLedger(ledgerID uint64) bool
}

// CoordinationClient gates the garbage collector loop: GC cycles are
// skipped while the coordination service client isn't ready. No
// production implementation lives in this repository.
type CoordinationClient interface {
	Ready() bool
}
