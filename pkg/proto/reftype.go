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

// ClassInfo is one entry of a VirtualMachine.ClassesBySignature reply.
type ClassInfo struct {
	RefTypeTag TypeTag
	TypeID     ReferenceTypeID
	Status     int32
}

// MemberInfo is one entry of a ReferenceType.Methods or
// ReferenceType.Fields reply. ID holds a method or field ID.
type MemberInfo struct {
	ID        uint64
	Name      string
	Signature string
	ModBits   int32
}

func DecodeClasses(r *Reader) ([]ClassInfo, error) {
	count, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	// tag byte and status int at least
	if count < 0 || int(count) > r.Remaining()/5 {
		return nil, &BoundError{Field: "classes", Offset: r.Offset(), Need: int(count) * 5, Avail: r.Remaining()}
	}
	classes := make([]ClassInfo, 0, count)
	for i := int32(0); i < count; i++ {
		var c ClassInfo
		if c.RefTypeTag, err = r.ReadTypeTag(); err != nil {
			return nil, err
		}
		if c.TypeID, err = r.ReadReferenceTypeID(); err != nil {
			return nil, err
		}
		if c.Status, err = r.ReadInt(); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func EncodeClasses(w *Writer, classes []ClassInfo) {
	w.AddInt(int32(len(classes)))
	for _, c := range classes {
		w.AddByte(byte(c.RefTypeTag)).AddReferenceTypeID(c.TypeID).AddInt(c.Status)
	}
}

// DecodeMembers reads a member list whose IDs have the width of kind.
func DecodeMembers(r *Reader, kind IDKind) ([]MemberInfo, error) {
	count, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	// two empty strings and the modifier bits at least
	if count < 0 || int(count) > r.Remaining()/12 {
		return nil, &BoundError{Field: "members", Offset: r.Offset(), Need: int(count) * 12, Avail: r.Remaining()}
	}
	members := make([]MemberInfo, 0, count)
	for i := int32(0); i < count; i++ {
		var m MemberInfo
		if m.ID, err = r.ReadID(kind); err != nil {
			return nil, err
		}
		if m.Name, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.Signature, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.ModBits, err = r.ReadInt(); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func EncodeMembers(w *Writer, kind IDKind, members []MemberInfo) {
	w.AddInt(int32(len(members)))
	for _, m := range members {
		w.AddID(kind, m.ID).AddString(m.Name).AddString(m.Signature).AddInt(m.ModBits)
	}
}

// FindMember returns the first member named name.
func FindMember(members []MemberInfo, name string) (MemberInfo, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return MemberInfo{}, false
}

// DecodeValues reads the tagged value list of a GetValues reply.
func DecodeValues(r *Reader) ([]Value, error) {
	count, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count) > r.Remaining() {
		return nil, &BoundError{Field: "values", Offset: r.Offset(), Need: int(count), Avail: r.Remaining()}
	}
	values := make([]Value, 0, count)
	for i := int32(0); i < count; i++ {
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func EncodeValues(w *Writer, values []Value) {
	w.AddInt(int32(len(values)))
	for _, v := range values {
		w.AddValue(v)
	}
}
