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

package logging

import (
	"bytes"
	"strconv"

	"jdwpcheck/pkg/proto"
)

// KeyValueBuffer renders key=value pairs for log lines and metric tags.
type KeyValueBuffer struct {
	bytes.Buffer
	delimiter     byte
	pairDelimiter byte
}

func NewKVBufferForLog() *KeyValueBuffer {
	b := &KeyValueBuffer{
		delimiter:     '=',
		pairDelimiter: ',',
	}
	return b
}

func NewKVBuffer() *KeyValueBuffer {
	b := &KeyValueBuffer{
		pairDelimiter: '&',
		delimiter:     '=',
	}
	return b
}

var (
	logDataKeyID        []byte = []byte("id")
	logDataKeyCommand   []byte = []byte("cmd")
	logDataKeyLength    []byte = []byte("len")
	logDataKeyErrorCode []byte = []byte("err")
	logDataKeyPolicy    []byte = []byte("policy")
	logDataKeyNumEvents []byte = []byte("n")
	logDataKeyKind      []byte = []byte("kind")
	logDataKeyRequestID []byte = []byte("rid")
	logDataKeyThread    []byte = []byte("thread")
	logDataKeyElapsed   []byte = []byte("rht")
	logDataKeyRunID     []byte = []byte("run")
	logDataKeyState     []byte = []byte("state")
)

func (b *KeyValueBuffer) AddBytes(key []byte, value []byte) *KeyValueBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.Write(key)
	b.WriteByte(b.delimiter)
	b.Write(value)
	return b
}

func (b *KeyValueBuffer) Add(key []byte, value string) *KeyValueBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.Write(key)
	b.WriteByte(b.delimiter)
	b.WriteString(value)
	return b
}

func (b *KeyValueBuffer) AddInt(key []byte, value int) *KeyValueBuffer {
	return b.Add(key, strconv.Itoa(value))
}

func (b *KeyValueBuffer) AddUInt64(key []byte, value uint64) *KeyValueBuffer {
	return b.Add(key, strconv.FormatUint(value, 10))
}

func (b *KeyValueBuffer) AddHex(key []byte, value uint64) *KeyValueBuffer {
	return b.Add(key, "0x"+strconv.FormatUint(value, 16))
}

func (b *KeyValueBuffer) AddRunID(id string) *KeyValueBuffer {
	return b.Add(logDataKeyRunID, id)
}

func (b *KeyValueBuffer) AddState(state string) *KeyValueBuffer {
	return b.Add(logDataKeyState, state)
}

// AddElapsed adds a handling time in microseconds.
func (b *KeyValueBuffer) AddElapsed(us int64) *KeyValueBuffer {
	return b.Add(logDataKeyElapsed, strconv.FormatInt(us, 10))
}

func (b *KeyValueBuffer) AddPacketInfo(p *proto.Packet) *KeyValueBuffer {
	b.AddUInt64(logDataKeyID, uint64(p.ID)).AddUInt64(logDataKeyLength, uint64(p.Length))
	if p.IsReply() {
		if p.ErrorCode != proto.ErrorNone {
			b.Add(logDataKeyErrorCode, p.ErrorCode.String())
		}
		return b
	}
	return b.Add(logDataKeyCommand, p.GetCommand().String())
}

func (b *KeyValueBuffer) AddEventSetInfo(set *proto.EventSet) *KeyValueBuffer {
	b.Add(logDataKeyPolicy, set.SuspendPolicy.String()).AddInt(logDataKeyNumEvents, len(set.Events))
	for i := range set.Events {
		b.AddEventInfo(&set.Events[i])
	}
	return b
}

func (b *KeyValueBuffer) AddEventInfo(ev *proto.Event) *KeyValueBuffer {
	b.Add(logDataKeyKind, ev.Kind.String()).AddInt(logDataKeyRequestID, int(ev.RequestID))
	if ev.Thread != 0 {
		b.AddHex(logDataKeyThread, uint64(ev.Thread))
	}
	return b
}
