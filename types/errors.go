// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package types holds the error taxonomy and consumed-collaborator
// interfaces shared between the entrylog store and the packages it
// depends on, so neither side needs to import the other.
package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a segment referenced by a location or
	// segment id cannot be located in any configured storage directory.
	ErrNotFound = errors.New("segment not found")

	// ErrIOFailure is the sentinel wrapped by every IoError kind: short
	// reads, identity mismatches and any other filesystem failure.
	ErrIOFailure = errors.New("entry log i/o error")
)

// NotFoundError annotates ErrNotFound with the segment, ledger and
// location that triggered it.
type NotFoundError struct {
	SegmentID uint32
	LedgerID  uint64
	Location  uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry log: segment %x not found (ledger=%d location=%x)", e.SegmentID, e.LedgerID, e.Location)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ShortReadError is returned when the underlying file yields fewer bytes
// than requested.
type ShortReadError struct {
	Wanted int
	Got    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("entry log: short read, wanted %d bytes, got %d", e.Wanted, e.Got)
}

func (e *ShortReadError) Unwrap() error { return ErrIOFailure }

// IdentityMismatchError is returned when the (ledgerId, entryId) decoded
// from a frame disagrees with what the caller asked to read.
type IdentityMismatchError struct {
	WantLedgerID uint64
	WantEntryID  uint64
	GotLedgerID  uint64
	GotEntryID   uint64
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf(
		"entry log: identity mismatch: wanted ledger=%d entry=%d, found ledger=%d entry=%d",
		e.WantLedgerID, e.WantEntryID, e.GotLedgerID, e.GotEntryID,
	)
}

func (e *IdentityMismatchError) Unwrap() error { return ErrIOFailure }
