// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"errors"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bookie-io/entrylog/segment"
	"github.com/bookie-io/entrylog/types"
)

// scanSegment walks a sealed segment's frames from just past the
// header to its logical end, folding every distinct ledgerId it finds
// into a LedgerSet. A mid-scan I/O error (including a torn final frame
// left by a crash) is logged and stops the scan; whatever ledgers were
// read before the error are still returned.
func scanSegment(ch *segment.Channel, segmentID uint64, logger log.Logger) LedgerSet {
	set := make(LedgerSet)
	pos := int64(segment.HeaderSize)
	size := ch.Size()

	lenBuf := make([]byte, segment.LengthPrefixWidth)
	for pos < size {
		n, err := ch.ReadAt(lenBuf, pos)
		if err != nil || n < len(lenBuf) {
			logScanStop(logger, segmentID, pos, "reading frame length", err)
			break
		}
		frameLen := segment.DecodeLength(lenBuf)
		pos += int64(segment.LengthPrefixWidth)

		if int64(frameLen) > size-pos {
			logScanStop(logger, segmentID, pos, "frame length exceeds remaining segment bytes", nil)
			break
		}
		if frameLen > segment.MaxEntrySize {
			level.Warn(logger).Log("msg", "frame exceeds sanity bound, continuing", "segment", segmentID, "pos", pos, "len", frameLen)
		}
		if frameLen < segment.IdentityWidth {
			logScanStop(logger, segmentID, pos, "frame shorter than identity prefix", nil)
			break
		}

		identity := make([]byte, segment.IdentityWidth)
		n, err = ch.ReadAt(identity, pos)
		if err != nil || n < len(identity) {
			logScanStop(logger, segmentID, pos, "reading frame identity", err)
			break
		}
		ledgerID, _ := segment.DecodeIdentity(identity)
		set[ledgerID] = struct{}{}

		pos += int64(frameLen)
	}

	return set
}

func logScanStop(logger log.Logger, segmentID uint64, pos int64, reason string, err error) {
	kvs := []interface{}{"msg", "stopping segment scan early", "segment", segmentID, "pos", pos, "reason", reason}
	if err != nil && !errors.Is(err, io.EOF) {
		kvs = append(kvs, "err", err)
	}
	level.Warn(logger).Log(kvs...)
}

// recoverUnscanned scans every segment id in [0, activeSegmentID) that
// the index doesn't yet have an entry for, folding each into idx. It is
// invoked at startup and after every rollover. A segment file that's
// gone missing (already GC'd) is skipped with a warning rather than
// treated as an error.
func recoverUnscanned(reg *registry, idx *segmentIndex, activeSegmentID uint64, logger log.Logger) {
	for _, id := range idx.unscannedBelow(activeSegmentID) {
		ch, err := reg.get(id)
		if err != nil {
			var nf *types.NotFoundError
			if errors.As(err, &nf) {
				level.Warn(logger).Log("msg", "segment missing during recovery scan, skipping", "segment", id)
				continue
			}
			level.Error(logger).Log("msg", "failed to open segment for recovery scan", "segment", id, "err", err)
			continue
		}
		set := scanSegment(ch, id, logger)
		idx.install(id, set)
	}
}
