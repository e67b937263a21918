// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

import "encoding/binary"

const (
	// LengthPrefixWidth is the width, in bytes, of the big-endian frame
	// length prefix. It does not include itself in the encoded length.
	LengthPrefixWidth = 4

	// IdentityWidth is the width, in bytes, of the ledgerId+entryId
	// prefix carried in every frame's payload.
	IdentityWidth = 16

	// MaxEntrySize is the sanity bound on a decoded frame length.
	// Violating it is logged but not treated as fatal for reads, per
	// the on-disk format's corruption-sanity rule.
	MaxEntrySize = 1 << 20 // 1 MiB
)

// EncodeFrame builds a complete on-disk frame (length prefix + identity
// prefix + opaque data) ready to be appended to a segment.
func EncodeFrame(ledgerID, entryID uint64, data []byte) []byte {
	payloadLen := IdentityWidth + len(data)
	buf := make([]byte, LengthPrefixWidth+payloadLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(payloadLen))
	binary.BigEndian.PutUint64(buf[4:12], ledgerID)
	binary.BigEndian.PutUint64(buf[12:20], entryID)
	copy(buf[4+IdentityWidth:], data)
	return buf
}

// DecodeLength reads the 4-byte big-endian length prefix.
func DecodeLength(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// DecodeIdentity reads the 16-byte ledgerId+entryId prefix carried at
// the start of every frame's payload.
func DecodeIdentity(payload []byte) (ledgerID, entryID uint64) {
	ledgerID = binary.BigEndian.Uint64(payload[0:8])
	entryID = binary.BigEndian.Uint64(payload[8:16])
	return ledgerID, entryID
}
