// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	frame := EncodeFrame(42, 7, []byte("hello world"))

	require.Len(t, frame, LengthPrefixWidth+IdentityWidth+len("hello world"))

	payloadLen := DecodeLength(frame[:LengthPrefixWidth])
	require.EqualValues(t, IdentityWidth+len("hello world"), payloadLen)

	ledgerID, entryID := DecodeIdentity(frame[LengthPrefixWidth:])
	require.EqualValues(t, 42, ledgerID)
	require.EqualValues(t, 7, entryID)

	data := frame[LengthPrefixWidth+IdentityWidth:]
	require.Equal(t, "hello world", string(data))
}

func TestEncodeFrameEmptyPayload(t *testing.T) {
	frame := EncodeFrame(1, 1, nil)
	require.Len(t, frame, LengthPrefixWidth+IdentityWidth)
	require.EqualValues(t, IdentityWidth, DecodeLength(frame))
}
