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
	"math"
)

// Location is an executable position: a code index within a method of a
// class.
type Location struct {
	TypeTag  TypeTag
	ClassID  ReferenceTypeID
	MethodID MethodID
	Index    uint64
}

// IsZero reports whether every field is zero, which is how the VM encodes
// "no location", e.g. the catch location of an uncaught exception.
func (l Location) IsZero() bool {
	return l == Location{}
}

// SameMethod reports whether l and o differ at most in code index.
func (l Location) SameMethod(o Location) bool {
	return l.TypeTag == o.TypeTag && l.ClassID == o.ClassID && l.MethodID == o.MethodID
}

func (l Location) String() string {
	return fmt.Sprintf("(%s,%#x,%#x,%d)", l.TypeTag, uint64(l.ClassID), uint64(l.MethodID), l.Index)
}

// LineEntry maps the first code index of a source line.
type LineEntry struct {
	CodeIndex  uint64
	LineNumber int32
}

// LineTable is the reply of Method.LineTable.
type LineTable struct {
	Start uint64
	End   uint64
	Lines []LineEntry
}

func DecodeLineTable(r *Reader) (t LineTable, err error) {
	if t.Start, err = r.ReadUint64(); err != nil {
		return
	}
	if t.End, err = r.ReadUint64(); err != nil {
		return
	}
	var n int32
	if n, err = r.ReadInt(); err != nil {
		return
	}
	// each entry is 12 bytes; refuse counts the body cannot hold
	if n < 0 || int(n) > r.Remaining()/12 {
		err = &BoundError{Field: "line table", Offset: r.Offset(), Need: int(n) * 12, Avail: r.Remaining()}
		return
	}
	t.Lines = make([]LineEntry, 0, n)
	for i := int32(0); i < n; i++ {
		var e LineEntry
		if e.CodeIndex, err = r.ReadUint64(); err != nil {
			return
		}
		if e.LineNumber, err = r.ReadInt(); err != nil {
			return
		}
		t.Lines = append(t.Lines, e)
	}
	return
}

func EncodeLineTable(w *Writer, t LineTable) {
	w.AddUint64(t.Start).AddUint64(t.End).AddInt(int32(len(t.Lines)))
	for _, e := range t.Lines {
		w.AddUint64(e.CodeIndex).AddInt(e.LineNumber)
	}
}

// CodeIndex returns the code index of the first entry for line.
func (t LineTable) CodeIndex(line int32) (uint64, bool) {
	for _, e := range t.Lines {
		if e.LineNumber == line {
			return e.CodeIndex, true
		}
	}
	return 0, false
}

// LineNumber returns the line whose entry has exactly index. With
// approximate set, it returns the line of the entry with the greatest code
// index not above index instead.
func (t LineTable) LineNumber(index uint64, approximate bool) (int32, bool) {
	var best uint64
	line := int32(-1)
	for _, e := range t.Lines {
		if e.CodeIndex == index {
			return e.LineNumber, true
		}
		if approximate && e.CodeIndex <= index && (line < 0 || e.CodeIndex >= best) {
			best = e.CodeIndex
			line = e.LineNumber
		}
	}
	if line < 0 {
		return 0, false
	}
	return line, true
}

// Value is a tagged JDWP value. Bits holds the raw big-endian payload,
// zero-extended; for object tags it is the object ID.
type Value struct {
	Tag  Tag
	Bits uint64
}

func (t Tag) primitiveWidth() int {
	switch t {
	case TagByte, TagBoolean:
		return 1
	case TagChar, TagShort:
		return 2
	case TagInt, TagFloat:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagVoid:
		return 0
	}
	return -1
}

func ObjectValue(tag Tag, id ObjectID) Value {
	return Value{Tag: tag, Bits: uint64(id)}
}

func IntValue(v int32) Value {
	return Value{Tag: TagInt, Bits: uint64(uint32(v))}
}

func (v Value) ObjectID() ObjectID {
	return ObjectID(v.Bits)
}

func (v Value) Int() int32 {
	return int32(uint32(v.Bits))
}

func (v Value) Long() int64 {
	return int64(v.Bits)
}

func (v Value) Bool() bool {
	return v.Bits != 0
}

func (v Value) Double() float64 {
	return math.Float64frombits(v.Bits)
}

func (v Value) String() string {
	if v.Tag.IsObject() {
		return fmt.Sprintf("%s:%#x", v.Tag, v.Bits)
	}
	return fmt.Sprintf("%s:%d", v.Tag, v.Bits)
}
