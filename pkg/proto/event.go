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
	"fmt"
	"sync"
)

// EventSet is the content of one Event.Composite packet.
type EventSet struct {
	SuspendPolicy SuspendPolicy
	Events        []Event
}

// Event is a single event of a composite. Thread is zero for kinds that
// carry no thread (VM_DEATH, CLASS_UNLOAD).
type Event struct {
	Kind      EventKind
	RequestID int32
	Thread    ObjectID
	Data      EventData
}

// EventData is the kind-specific part of an event, following the request
// ID and, where present, the thread.
type EventData interface {
	Encode(w *Writer)
}

type (
	VMStartEvent struct{}

	VMDeathEvent struct{}

	ThreadStartEvent struct{}

	ThreadDeathEvent struct{}

	SingleStepEvent struct {
		Location Location
	}

	BreakpointEvent struct {
		Location Location
	}

	MethodEntryEvent struct {
		Location Location
	}

	ExceptionEvent struct {
		Throw        Location
		ExceptionTag Tag
		Exception    ObjectID
		Catch        Location
	}

	ClassPrepareEvent struct {
		RefTypeTag TypeTag
		TypeID     ReferenceTypeID
		Signature  string
		Status     int32
	}

	ClassUnloadEvent struct {
		Signature string
	}
)

func (VMStartEvent) Encode(*Writer)     {}
func (VMDeathEvent) Encode(*Writer)     {}
func (ThreadStartEvent) Encode(*Writer) {}
func (ThreadDeathEvent) Encode(*Writer) {}

func (e *SingleStepEvent) Encode(w *Writer)  { w.AddLocation(e.Location) }
func (e *BreakpointEvent) Encode(w *Writer)  { w.AddLocation(e.Location) }
func (e *MethodEntryEvent) Encode(w *Writer) { w.AddLocation(e.Location) }

func (e *ExceptionEvent) Encode(w *Writer) {
	w.AddLocation(e.Throw).
		AddTaggedObjectID(e.ExceptionTag, e.Exception).
		AddLocation(e.Catch)
}

// IsCaught reports whether the VM supplied a catch location.
func (e *ExceptionEvent) IsCaught() bool {
	return !e.Catch.IsZero()
}

func (e *ClassPrepareEvent) Encode(w *Writer) {
	w.AddByte(byte(e.RefTypeTag)).
		AddReferenceTypeID(e.TypeID).
		AddString(e.Signature).
		AddInt(e.Status)
}

func (e *ClassUnloadEvent) Encode(w *Writer) {
	w.AddString(e.Signature)
}

// EventDecoder reads the kind-specific part of an event.
type EventDecoder func(r *Reader) (EventData, error)

type eventCodec struct {
	hasThread bool
	decode    EventDecoder
}

var (
	eventCodecMtx sync.RWMutex
	eventCodecs   = map[EventKind]eventCodec{
		EventVMStart:      {true, func(*Reader) (EventData, error) { return VMStartEvent{}, nil }},
		EventVMDeath:      {false, func(*Reader) (EventData, error) { return VMDeathEvent{}, nil }},
		EventThreadStart:  {true, func(*Reader) (EventData, error) { return ThreadStartEvent{}, nil }},
		EventThreadDeath:  {true, func(*Reader) (EventData, error) { return ThreadDeathEvent{}, nil }},
		EventSingleStep:   {true, decodeSingleStep},
		EventBreakpoint:   {true, decodeBreakpoint},
		EventMethodEntry:  {true, decodeMethodEntry},
		EventException:    {true, decodeException},
		EventClassPrepare: {true, decodeClassPrepare},
		EventClassUnload:  {false, decodeClassUnload},
	}
)

// RegisterEventDecoder adds or replaces the decoder for kind. hasThread
// tells whether a thread ID follows the request ID.
func RegisterEventDecoder(kind EventKind, hasThread bool, dec EventDecoder) {
	eventCodecMtx.Lock()
	eventCodecs[kind] = eventCodec{hasThread, dec}
	eventCodecMtx.Unlock()
}

func lookupEventCodec(kind EventKind) (c eventCodec, ok bool) {
	eventCodecMtx.RLock()
	c, ok = eventCodecs[kind]
	eventCodecMtx.RUnlock()
	return
}

func decodeSingleStep(r *Reader) (EventData, error) {
	loc, err := r.ReadLocation()
	return &SingleStepEvent{loc}, err
}

func decodeBreakpoint(r *Reader) (EventData, error) {
	loc, err := r.ReadLocation()
	return &BreakpointEvent{loc}, err
}

func decodeMethodEntry(r *Reader) (EventData, error) {
	loc, err := r.ReadLocation()
	return &MethodEntryEvent{loc}, err
}

func decodeException(r *Reader) (EventData, error) {
	e := &ExceptionEvent{}
	var err error
	if e.Throw, err = r.ReadLocation(); err != nil {
		return nil, err
	}
	if e.ExceptionTag, e.Exception, err = r.ReadTaggedObjectID(); err != nil {
		return nil, err
	}
	if e.Catch, err = r.ReadLocation(); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeClassPrepare(r *Reader) (EventData, error) {
	e := &ClassPrepareEvent{}
	var err error
	if e.RefTypeTag, err = r.ReadTypeTag(); err != nil {
		return nil, err
	}
	if e.TypeID, err = r.ReadReferenceTypeID(); err != nil {
		return nil, err
	}
	if e.Signature, err = r.ReadString(); err != nil {
		return nil, err
	}
	if e.Status, err = r.ReadInt(); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeClassUnload(r *Reader) (EventData, error) {
	sig, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &ClassUnloadEvent{sig}, nil
}

// DecodeEventSet parses an Event.Composite body. It does not check for
// trailing bytes; callers use r.CheckParsed.
func DecodeEventSet(r *Reader) (*EventSet, error) {
	policy, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	// the smallest event is a kind byte and a request ID
	if count < 0 || int(count) > r.Remaining()/5 {
		return nil, &BoundError{Field: "events", Offset: r.Offset(), Need: int(count) * 5, Avail: r.Remaining()}
	}
	set := &EventSet{SuspendPolicy: SuspendPolicy(policy), Events: make([]Event, 0, count)}
	for i := int32(0); i < count; i++ {
		ev, err := decodeEvent(r)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		set.Events = append(set.Events, ev)
	}
	return set, nil
}

func decodeEvent(r *Reader) (ev Event, err error) {
	var kind byte
	if kind, err = r.ReadByte(); err != nil {
		return
	}
	ev.Kind = EventKind(kind)
	codec, ok := lookupEventCodec(ev.Kind)
	if !ok {
		err = &UnsupportedEventKindError{Kind: ev.Kind}
		return
	}
	if ev.RequestID, err = r.ReadInt(); err != nil {
		return
	}
	if codec.hasThread {
		if ev.Thread, err = r.ReadObjectID(); err != nil {
			return
		}
	}
	ev.Data, err = codec.decode(r)
	return
}

// DecodeEventPacket decodes p as an Event.Composite. When the body has
// unparsed bytes, the decoded set is returned together with a
// *TrailingDataError.
func DecodeEventPacket(p *Packet, sizes IDSizes) (*EventSet, error) {
	if !p.IsEvent() {
		return nil, fmt.Errorf("%s: %w", p, ErrNotEventPacket)
	}
	r := p.Reader(sizes)
	set, err := DecodeEventSet(r)
	if err != nil {
		return nil, err
	}
	if err = r.CheckParsed(); err != nil {
		return set, err
	}
	return set, nil
}

// Encode writes the Event.Composite body for s.
func (s *EventSet) Encode(w *Writer) {
	w.AddByte(byte(s.SuspendPolicy)).AddInt(int32(len(s.Events)))
	for i := range s.Events {
		ev := &s.Events[i]
		w.AddByte(byte(ev.Kind)).AddInt(ev.RequestID)
		if codec, ok := lookupEventCodec(ev.Kind); !ok || codec.hasThread {
			w.AddObjectID(ev.Thread)
		}
		if ev.Data != nil {
			ev.Data.Encode(w)
		}
	}
}

func (e *Event) String() string {
	return fmt.Sprintf("%s{rid=%d,thread=%#x,%+v}", e.Kind, e.RequestID, uint64(e.Thread), e.Data)
}
