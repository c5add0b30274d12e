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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exceptionEventSet() *EventSet {
	return &EventSet{
		SuspendPolicy: SuspendAll,
		Events: []Event{{
			Kind:      EventException,
			RequestID: 5,
			Thread:    0x71,
			Data: &ExceptionEvent{
				Throw:        Location{TypeTagClass, 7, 3, 12},
				ExceptionTag: TagObject,
				Exception:    0xE9,
				Catch:        Location{TypeTagClass, 7, 4, 30},
			},
		}},
	}
}

func encodeEventSet(t *testing.T, set *EventSet, sizes IDSizes) []byte {
	w := NewWriter(sizes)
	set.Encode(w)
	require.NoError(t, w.Err())
	return w.Bytes()
}

func TestEventSetRoundTrip(t *testing.T) {
	for _, sizes := range []IDSizes{sizes8, sizes4} {
		set := &EventSet{
			SuspendPolicy: SuspendAll,
			Events: []Event{
				{Kind: EventVMStart, RequestID: 0, Thread: 1, Data: VMStartEvent{}},
				{Kind: EventClassPrepare, RequestID: 2, Thread: 1, Data: &ClassPrepareEvent{
					RefTypeTag: TypeTagClass, TypeID: 7, Signature: "Lp/Tested;", Status: ClassStatusPrepared | ClassStatusVerified,
				}},
				{Kind: EventBreakpoint, RequestID: 3, Thread: 0x71, Data: &BreakpointEvent{Location{TypeTagClass, 7, 2, 4}}},
				exceptionEventSet().Events[0],
				{Kind: EventVMDeath, RequestID: 0, Data: VMDeathEvent{}},
			},
		}
		raw := encodeEventSet(t, set, sizes)

		p := NewCommandPacket(9, CmdEventComposite, raw)
		got, err := DecodeEventPacket(p, sizes)
		require.NoError(t, err)
		assert.Equal(t, set, got)
	}
}

func TestEventTruncationIsOutOfBounds(t *testing.T) {
	raw := encodeEventSet(t, exceptionEventSet(), sizes8)

	for i := 0; i < len(raw); i++ {
		_, err := DecodeEventSet(NewReader(raw[:i], sizes8))
		require.Error(t, err, "prefix %d", i)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "prefix %d: %v", i, err)
	}

	set, err := DecodeEventSet(NewReader(raw, sizes8))
	require.NoError(t, err)
	assert.Equal(t, exceptionEventSet(), set)
}

func TestEventTrailingData(t *testing.T) {
	raw := encodeEventSet(t, exceptionEventSet(), sizes8)
	raw = append(raw, 0x00, 0x01)

	set, err := DecodeEventPacket(NewCommandPacket(1, CmdEventComposite, raw), sizes8)
	require.NotNil(t, set)
	assert.True(t, errors.Is(err, ErrTrailingData))
	ex := set.Events[0].Data.(*ExceptionEvent)
	assert.Equal(t, ObjectID(0xE9), ex.Exception)
	assert.True(t, ex.IsCaught())
}

func TestUnsupportedEventKind(t *testing.T) {
	w := NewWriter(sizes8)
	w.AddByte(byte(SuspendAll)).AddInt(1).AddByte(byte(EventFieldAccess)).AddInt(1).AddObjectID(1)

	_, err := DecodeEventSet(NewReader(w.Bytes(), sizes8))
	var uerr *UnsupportedEventKindError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, EventFieldAccess, uerr.Kind)
	assert.True(t, errors.Is(err, ErrUnsupportedEventKind))
}

func TestRegisterEventDecoder(t *testing.T) {
	const kind = EventKind(200)
	RegisterEventDecoder(kind, false, func(r *Reader) (EventData, error) {
		sig, err := r.ReadString()
		return &ClassUnloadEvent{sig}, err
	})

	w := NewWriter(sizes4)
	w.AddByte(byte(SuspendNone)).AddInt(1).AddByte(byte(kind)).AddInt(3).AddString("x")
	set, err := DecodeEventSet(NewReader(w.Bytes(), sizes4))
	require.NoError(t, err)
	require.Len(t, set.Events, 1)
	assert.Equal(t, &ClassUnloadEvent{"x"}, set.Events[0].Data)
}

func TestDecodeEventPacketRejectsNonEvents(t *testing.T) {
	_, err := DecodeEventPacket(NewReplyPacket(1, ErrorNone, nil), sizes8)
	assert.True(t, errors.Is(err, ErrNotEventPacket))
}

func TestEventCountBeyondBody(t *testing.T) {
	w := NewWriter(sizes8)
	w.AddByte(byte(SuspendAll)).AddInt(1000)
	_, err := DecodeEventSet(NewReader(w.Bytes(), sizes8))
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}
