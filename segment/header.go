// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

// HeaderSize is the fixed size, in bytes, of the header every segment
// file starts with. The body (entry frames) begins immediately after it.
const HeaderSize = 1024

// Magic is the 4-byte ASCII sequence every segment header starts with.
var Magic = [4]byte{'B', 'K', 'L', 'O'}

// NewHeader returns a fresh HeaderSize-byte header: magic followed by
// zeroed reserved bytes.
func NewHeader() []byte {
	h := make([]byte, HeaderSize)
	copy(h, Magic[:])
	return h
}

// HasValidMagic reports whether the first 4 bytes of a header match
// Magic. The remainder of the header is reserved and is never validated
// on read, per the on-disk format.
func HasValidMagic(header []byte) bool {
	return len(header) >= 4 &&
		header[0] == Magic[0] && header[1] == Magic[1] &&
		header[2] == Magic[2] && header[3] == Magic[3]
}
