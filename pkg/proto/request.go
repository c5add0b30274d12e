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
)

// EventModifier narrows an event request. Only the fields belonging to
// Kind are encoded.
type EventModifier struct {
	Kind     ModKind
	Count    int32           // ModCount
	Thread   ObjectID        // ModThreadOnly
	ClassID  ReferenceTypeID // ModClassOnly, ModExceptionOnly
	Pattern  string          // ModClassMatch, ModClassExclude
	Location Location        // ModLocationOnly
	Caught   bool            // ModExceptionOnly
	Uncaught bool            // ModExceptionOnly
}

func CountModifier(n int32) EventModifier {
	return EventModifier{Kind: ModCount, Count: n}
}

func ThreadOnly(thread ObjectID) EventModifier {
	return EventModifier{Kind: ModThreadOnly, Thread: thread}
}

func ClassOnly(id ReferenceTypeID) EventModifier {
	return EventModifier{Kind: ModClassOnly, ClassID: id}
}

func ClassMatch(pattern string) EventModifier {
	return EventModifier{Kind: ModClassMatch, Pattern: pattern}
}

func ClassExclude(pattern string) EventModifier {
	return EventModifier{Kind: ModClassExclude, Pattern: pattern}
}

func LocationOnly(loc Location) EventModifier {
	return EventModifier{Kind: ModLocationOnly, Location: loc}
}

// ExceptionOnly restricts to exceptions of class id, or of any class when
// id is zero.
func ExceptionOnly(id ReferenceTypeID, caught, uncaught bool) EventModifier {
	return EventModifier{Kind: ModExceptionOnly, ClassID: id, Caught: caught, Uncaught: uncaught}
}

func (m *EventModifier) Encode(w *Writer) {
	w.AddByte(byte(m.Kind))
	switch m.Kind {
	case ModCount:
		w.AddInt(m.Count)
	case ModThreadOnly:
		w.AddObjectID(m.Thread)
	case ModClassOnly:
		w.AddReferenceTypeID(m.ClassID)
	case ModClassMatch, ModClassExclude:
		w.AddString(m.Pattern)
	case ModLocationOnly:
		w.AddLocation(m.Location)
	case ModExceptionOnly:
		w.AddReferenceTypeID(m.ClassID).AddBool(m.Caught).AddBool(m.Uncaught)
	default:
		w.setErr(fmt.Errorf("modifier kind %d: %w", m.Kind, ErrUnsupportedModifier))
	}
}

func decodeEventModifier(r *Reader) (m EventModifier, err error) {
	var kind byte
	if kind, err = r.ReadByte(); err != nil {
		return
	}
	m.Kind = ModKind(kind)
	switch m.Kind {
	case ModCount:
		m.Count, err = r.ReadInt()
	case ModThreadOnly:
		m.Thread, err = r.ReadObjectID()
	case ModClassOnly:
		m.ClassID, err = r.ReadReferenceTypeID()
	case ModClassMatch, ModClassExclude:
		m.Pattern, err = r.ReadString()
	case ModLocationOnly:
		m.Location, err = r.ReadLocation()
	case ModExceptionOnly:
		if m.ClassID, err = r.ReadReferenceTypeID(); err != nil {
			return
		}
		if m.Caught, err = r.ReadBool(); err != nil {
			return
		}
		m.Uncaught, err = r.ReadBool()
	default:
		err = fmt.Errorf("modifier kind %d: %w", kind, ErrUnsupportedModifier)
	}
	return
}

// EventRequest is the body of EventRequest.Set.
type EventRequest struct {
	Kind          EventKind
	SuspendPolicy SuspendPolicy
	Modifiers     []EventModifier
}

func (e *EventRequest) Encode(w *Writer) {
	w.AddByte(byte(e.Kind)).AddByte(byte(e.SuspendPolicy)).AddInt(int32(len(e.Modifiers)))
	for i := range e.Modifiers {
		e.Modifiers[i].Encode(w)
	}
}

func DecodeEventRequest(r *Reader) (*EventRequest, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	policy, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count) > r.Remaining() {
		return nil, &BoundError{Field: "modifiers", Offset: r.Offset(), Need: int(count), Avail: r.Remaining()}
	}
	e := &EventRequest{Kind: EventKind(kind), SuspendPolicy: SuspendPolicy(policy), Modifiers: make([]EventModifier, 0, count)}
	for i := int32(0); i < count; i++ {
		m, err := decodeEventModifier(r)
		if err != nil {
			return nil, fmt.Errorf("modifier %d: %w", i, err)
		}
		e.Modifiers = append(e.Modifiers, m)
	}
	return e, nil
}

func (e *EventRequest) String() string {
	return fmt.Sprintf("%s/%s modifiers=%d", e.Kind, e.SuspendPolicy, len(e.Modifiers))
}
