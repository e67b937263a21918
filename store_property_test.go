// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"testing"

	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

// TestAddReadEntryRoundTripProperty fuzzes payload bytes and ledger/entry ids
// across many small segments (forcing several rollovers) and checks every
// entry reads back byte-identical at the location addEntry returned,
// regardless of which segment it landed in.
func TestAddReadEntryRoundTripProperty(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.EntryLogSizeLimit = 4096

	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	f := fuzz.New().NilChance(0).NumElements(1, 256)

	type written struct {
		ledgerID, entryID uint64
		data              []byte
		loc               Location
	}
	var entries []written

	for i := 0; i < 200; i++ {
		var data []byte
		f.Fuzz(&data)
		ledgerID := uint64(i % 5)
		entryID := uint64(i)

		loc, err := s.AddEntry(ledgerID, entryID, data)
		require.NoError(t, err)
		entries = append(entries, written{ledgerID, entryID, data, loc})
	}

	for _, e := range entries {
		got, err := s.ReadEntry(e.ledgerID, e.entryID, e.loc)
		require.NoError(t, err)
		require.Equal(t, e.data, got)
	}
}
