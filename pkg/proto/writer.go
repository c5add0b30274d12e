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

// Writer builds a packet body. The first identifier written against an
// unknown width is recorded and returned by Err; later writes are dropped.
type Writer struct {
	buf   []byte
	sizes IDSizes
	err   error
}

func NewWriter(sizes IDSizes) *Writer {
	return &Writer{sizes: sizes}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) AddRaw(b []byte) *Writer {
	if w.err == nil {
		w.buf = append(w.buf, b...)
	}
	return w
}

func (w *Writer) AddByte(b byte) *Writer {
	if w.err == nil {
		w.buf = append(w.buf, b)
	}
	return w
}

func (w *Writer) AddBool(v bool) *Writer {
	if v {
		return w.AddByte(1)
	}
	return w.AddByte(0)
}

func (w *Writer) AddShort(v int16) *Writer {
	return w.addUint(uint64(uint16(v)), 2)
}

func (w *Writer) AddInt(v int32) *Writer {
	return w.addUint(uint64(uint32(v)), 4)
}

func (w *Writer) AddLong(v int64) *Writer {
	return w.addUint(uint64(v), 8)
}

func (w *Writer) AddUint64(v uint64) *Writer {
	return w.addUint(v, 8)
}

// addUint writes the low width bytes of v big-endian.
func (w *Writer) addUint(v uint64, width int) *Writer {
	if w.err != nil {
		return w
	}
	for i := width - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(v>>(8*uint(i))))
	}
	return w
}

// AddID writes v truncated to the negotiated width for kind.
func (w *Writer) AddID(kind IDKind, v uint64) *Writer {
	if w.err != nil {
		return w
	}
	width, err := w.sizes.Width(kind)
	if err != nil {
		w.err = err
		return w
	}
	return w.addUint(v, width)
}

func (w *Writer) AddObjectID(id ObjectID) *Writer {
	return w.AddID(IDKindObject, uint64(id))
}

func (w *Writer) AddReferenceTypeID(id ReferenceTypeID) *Writer {
	return w.AddID(IDKindReferenceType, uint64(id))
}

func (w *Writer) AddMethodID(id MethodID) *Writer {
	return w.AddID(IDKindMethod, uint64(id))
}

func (w *Writer) AddFieldID(id FieldID) *Writer {
	return w.AddID(IDKindField, uint64(id))
}

func (w *Writer) AddFrameID(id FrameID) *Writer {
	return w.AddID(IDKindFrame, uint64(id))
}

func (w *Writer) AddString(s string) *Writer {
	w.AddInt(int32(len(s)))
	if w.err == nil {
		w.buf = append(w.buf, s...)
	}
	return w
}

func (w *Writer) AddLocation(loc Location) *Writer {
	return w.AddByte(byte(loc.TypeTag)).
		AddReferenceTypeID(loc.ClassID).
		AddMethodID(loc.MethodID).
		AddUint64(loc.Index)
}

func (w *Writer) AddTaggedObjectID(tag Tag, id ObjectID) *Writer {
	return w.AddByte(byte(tag)).AddObjectID(id)
}

// AddValue writes a tagged value.
func (w *Writer) AddValue(v Value) *Writer {
	w.AddByte(byte(v.Tag))
	return w.AddUntaggedValue(v)
}

func (w *Writer) AddUntaggedValue(v Value) *Writer {
	if v.Tag.IsObject() {
		return w.AddID(IDKindObject, v.Bits)
	}
	if width := v.Tag.primitiveWidth(); width > 0 {
		return w.addUint(v.Bits, width)
	}
	return w
}
