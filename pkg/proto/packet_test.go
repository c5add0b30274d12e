//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package proto

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPacketLayout(t *testing.T) {
	p := NewCommandPacket(0x01020304, CmdEventRequestSet, []byte{0xAA, 0xBB})
	raw := p.Encode()

	expected := []byte{
		0x00, 0x00, 0x00, 0x0D, // length
		0x01, 0x02, 0x03, 0x04, // id
		0x00,       // flags
		0x0F, 0x01, // EventRequest.Set
		0xAA, 0xBB,
	}
	assert.Equal(t, expected, raw)
	assert.Equal(t, uint32(13), p.Length)
}

func TestReplyPacketLayout(t *testing.T) {
	p := NewReplyPacket(7, ErrorInvalidObject, nil)
	raw := p.Encode()

	expected := []byte{
		0x00, 0x00, 0x00, 0x0B,
		0x00, 0x00, 0x00, 0x07,
		0x80,
		0x00, 0x14,
	}
	assert.Equal(t, expected, raw)
}

func TestPacketRoundTrip(t *testing.T) {
	packets := []*Packet{
		NewCommandPacket(1, CmdVMIDSizes, nil),
		NewCommandPacket(0xFFFFFFFF, CmdEventComposite, []byte{2, 0, 0, 0, 0}),
		NewReplyPacket(42, ErrorNone, []byte{0, 0, 0, 8}),
		NewReplyPacket(43, ErrorVMDead, nil),
	}
	for _, p := range packets {
		t.Run(p.String(), func(t *testing.T) {
			raw := p.Encode()

			decoded, err := DecodePacket(raw)
			require.NoError(t, err)
			assert.Equal(t, p.Header, decoded.Header)
			assert.Equal(t, len(p.Body), len(decoded.Body))
			if len(p.Body) > 0 {
				assert.Equal(t, p.Body, decoded.Body)
			}

			var fromStream Packet
			n, err := fromStream.Read(bytes.NewReader(raw), 0)
			require.NoError(t, err)
			assert.Equal(t, len(raw), n)
			assert.Equal(t, p.Header, fromStream.Header)
		})
	}
}

func TestDecodePacketBounds(t *testing.T) {
	raw := NewCommandPacket(5, CmdVMResume, []byte{1, 2, 3, 4}).Encode()

	for i := 0; i < len(raw); i++ {
		_, err := DecodePacket(raw[:i])
		require.Error(t, err, "prefix %d", i)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "prefix %d: %v", i, err)
	}

	withExtra := append(append([]byte{}, raw...), 0xEE, 0xEE)
	p, err := DecodePacket(withExtra)
	require.NotNil(t, p)
	var trailing *TrailingDataError
	require.True(t, errors.As(err, &trailing))
	assert.Equal(t, 2, trailing.Extra)
	assert.Equal(t, []byte{1, 2, 3, 4}, p.Body)
}

func TestDecodePacketMissingByte(t *testing.T) {
	w := NewWriter(sizes8)
	exceptionEventSet().Encode(w)
	require.NoError(t, w.Err())
	raw := NewCommandPacket(9, CmdEventComposite, w.Bytes()).Encode()

	for i := 0; i < len(raw); i++ {
		short := make([]byte, 0, len(raw)-1)
		short = append(append(short, raw[:i]...), raw[i+1:]...)

		p, err := DecodePacket(short)
		if err == nil {
			_, err = DecodeEventPacket(p, sizes8)
		}
		require.Error(t, err, "without byte %d", i)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "without byte %d: %v", i, err)
	}
}

func TestReadRejectsBadLength(t *testing.T) {
	t.Run("below header size", func(t *testing.T) {
		raw := []byte{0, 0, 0, 5, 0, 0, 0, 1, 0, 1, 1}
		var p Packet
		_, err := p.Read(bytes.NewReader(raw), 0)
		assert.True(t, errors.Is(err, ErrInvalidPacketLength))
	})
	t.Run("above maximum", func(t *testing.T) {
		raw := []byte{0, 0, 1, 0, 0, 0, 0, 1, 0, 1, 1}
		var p Packet
		_, err := p.Read(bytes.NewReader(raw), 128)
		var lerr *PacketLengthError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, uint32(256), lerr.Length)
	})
	t.Run("clean eof", func(t *testing.T) {
		var p Packet
		_, err := p.Read(bytes.NewReader(nil), 0)
		assert.Equal(t, io.EOF, err)
	})
	t.Run("short body", func(t *testing.T) {
		raw := NewCommandPacket(1, CmdVMResume, []byte{1, 2, 3}).Encode()
		var p Packet
		_, err := p.Read(bytes.NewReader(raw[:len(raw)-1]), 0)
		assert.Equal(t, io.ErrUnexpectedEOF, err)
	})
}

func TestPacketKind(t *testing.T) {
	assert.True(t, NewCommandPacket(1, CmdEventComposite, nil).IsEvent())
	assert.False(t, NewCommandPacket(1, CmdVMResume, nil).IsEvent())

	reply := NewReplyPacket(1, ErrorNone, nil)
	assert.True(t, reply.IsReply())
	assert.False(t, reply.IsEvent())
}
