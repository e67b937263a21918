// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/bookie-io/entrylog/segment"
)

func TestScanSegmentUnionsLedgerIDs(t *testing.T) {
	dir := t.TempDir()
	writeSealedSegment(t, dir, 0,
		segment.EncodeFrame(1, 0, []byte("a")),
		segment.EncodeFrame(2, 0, []byte("b")),
		segment.EncodeFrame(1, 1, []byte("c")),
	)

	r := newRegistry([]string{dir})
	ch, err := r.get(0)
	require.NoError(t, err)

	set := scanSegment(ch, 0, log.NewNopLogger())
	require.Len(t, set, 2)
	_, has1 := set[1]
	_, has2 := set[2]
	require.True(t, has1)
	require.True(t, has2)
}

func TestScanSegmentStopsAtTornFrame(t *testing.T) {
	dir := t.TempDir()
	writeSealedSegment(t, dir, 0,
		segment.EncodeFrame(1, 0, []byte("first")),
		segment.EncodeFrame(2, 0, []byte("second")),
	)
	path := filepath.Join(dir, "0.log")
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, fi.Size()-3))

	r := newRegistry([]string{dir})
	ch, err := r.get(0)
	require.NoError(t, err)

	set := scanSegment(ch, 0, log.NewNopLogger())
	require.Len(t, set, 1)
	_, has1 := set[1]
	require.True(t, has1)
}

func TestRecoverUnscannedSkipsAlreadyIndexed(t *testing.T) {
	dir := t.TempDir()
	writeSealedSegment(t, dir, 0, segment.EncodeFrame(1, 0, []byte("a")))
	writeSealedSegment(t, dir, 1, segment.EncodeFrame(2, 0, []byte("b")))

	r := newRegistry([]string{dir})
	idx := newSegmentIndex()
	idx.install(0, LedgerSet{99: struct{}{}})

	recoverUnscanned(r, idx, 2, log.NewNopLogger())

	// Segment 0 was pre-installed and must not have been rescanned.
	set0, ok := idx.ledgers(0)
	require.True(t, ok)
	_, has99 := set0[99]
	require.True(t, has99)

	set1, ok := idx.ledgers(1)
	require.True(t, ok)
	_, has2 := set1[2]
	require.True(t, has2)
}

func TestRecoverUnscannedSkipsMissingSegment(t *testing.T) {
	dir := t.TempDir()
	r := newRegistry([]string{dir})
	idx := newSegmentIndex()

	// No segment 0 file on disk; recovery must skip it without panicking.
	recoverUnscanned(r, idx, 1, log.NewNopLogger())
	require.False(t, idx.has(0))
}
