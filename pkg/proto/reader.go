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

// Reader is a cursor over a packet body. A failed read leaves the cursor
// where it was.
type Reader struct {
	data  []byte
	off   int
	sizes IDSizes
}

func NewReader(data []byte, sizes IDSizes) *Reader {
	return &Reader{data: data, sizes: sizes}
}

func (r *Reader) IDSizes() IDSizes {
	return r.sizes
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) IsParsed() bool {
	return r.off >= len(r.data)
}

// CheckParsed returns a *TrailingDataError if bytes remain.
func (r *Reader) CheckParsed() error {
	if extra := r.Remaining(); extra > 0 {
		return &TrailingDataError{Offset: r.off, Extra: extra}
	}
	return nil
}

func (r *Reader) take(field string, n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, &BoundError{Field: field, Offset: r.off, Need: n, Avail: r.Remaining()}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take("byte", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadShort() (int16, error) {
	b, err := r.take("short", 2)
	if err != nil {
		return 0, err
	}
	return int16(EncByteOrder.Uint16(b)), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take("int", 4)
	if err != nil {
		return 0, err
	}
	return EncByteOrder.Uint32(b), nil
}

func (r *Reader) ReadInt() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take("long", 8)
	if err != nil {
		return 0, err
	}
	return EncByteOrder.Uint64(b), nil
}

func (r *Reader) ReadLong() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// readUint reads an unsigned big-endian integer of 1 to 8 bytes.
func (r *Reader) readUint(field string, width int) (uint64, error) {
	b, err := r.take(field, width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// ReadID reads an identifier of the negotiated width for kind, zero-extended.
func (r *Reader) ReadID(kind IDKind) (uint64, error) {
	w, err := r.sizes.Width(kind)
	if err != nil {
		return 0, err
	}
	return r.readUint(kind.String(), w)
}

func (r *Reader) ReadObjectID() (ObjectID, error) {
	v, err := r.ReadID(IDKindObject)
	return ObjectID(v), err
}

func (r *Reader) ReadReferenceTypeID() (ReferenceTypeID, error) {
	v, err := r.ReadID(IDKindReferenceType)
	return ReferenceTypeID(v), err
}

func (r *Reader) ReadMethodID() (MethodID, error) {
	v, err := r.ReadID(IDKindMethod)
	return MethodID(v), err
}

func (r *Reader) ReadFieldID() (FieldID, error) {
	v, err := r.ReadID(IDKindField)
	return FieldID(v), err
}

func (r *Reader) ReadFrameID() (FrameID, error) {
	v, err := r.ReadID(IDKindFrame)
	return FrameID(v), err
}

// ReadString reads a 4-byte length followed by that many UTF-8 bytes.
func (r *Reader) ReadString() (string, error) {
	start := r.off
	n, err := r.ReadInt()
	if err != nil {
		return "", err
	}
	b, err := r.take("string", int(n))
	if err != nil {
		r.off = start
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadTypeTag() (TypeTag, error) {
	b, err := r.ReadByte()
	return TypeTag(b), err
}

func (r *Reader) ReadTag() (Tag, error) {
	b, err := r.ReadByte()
	return Tag(b), err
}

func (r *Reader) ReadLocation() (loc Location, err error) {
	start := r.off
	defer func() {
		if err != nil {
			r.off = start
		}
	}()
	if loc.TypeTag, err = r.ReadTypeTag(); err != nil {
		return
	}
	if loc.ClassID, err = r.ReadReferenceTypeID(); err != nil {
		return
	}
	if loc.MethodID, err = r.ReadMethodID(); err != nil {
		return
	}
	loc.Index, err = r.ReadUint64()
	return
}

// ReadTaggedObjectID reads a tag byte followed by an object ID.
func (r *Reader) ReadTaggedObjectID() (tag Tag, id ObjectID, err error) {
	start := r.off
	if tag, err = r.ReadTag(); err != nil {
		return
	}
	if id, err = r.ReadObjectID(); err != nil {
		r.off = start
	}
	return
}

// ReadValue reads a tagged value.
func (r *Reader) ReadValue() (Value, error) {
	start := r.off
	tag, err := r.ReadTag()
	if err != nil {
		return Value{}, err
	}
	v, err := r.ReadUntaggedValue(tag)
	if err != nil {
		r.off = start
	}
	return v, err
}

// ReadUntaggedValue reads the payload of a value whose tag is known.
func (r *Reader) ReadUntaggedValue(tag Tag) (Value, error) {
	v := Value{Tag: tag}
	if tag.IsObject() {
		id, err := r.ReadID(IDKindObject)
		v.Bits = id
		return v, err
	}
	width := tag.primitiveWidth()
	if width < 0 {
		return v, fmt.Errorf("%s at offset %d: %w", tag, r.off, ErrUnknownTag)
	}
	if width == 0 {
		return v, nil
	}
	bits, err := r.readUint("value", width)
	v.Bits = bits
	return v, err
}
