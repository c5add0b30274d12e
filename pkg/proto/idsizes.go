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

type IDKind uint8

const (
	IDKindField IDKind = iota
	IDKindMethod
	IDKindObject
	IDKindReferenceType
	IDKindFrame
	kNumIDKinds
)

var idKindNames = [kNumIDKinds]string{"fieldID", "methodID", "objectID", "referenceTypeID", "frameID"}

func (k IDKind) String() string {
	if k < kNumIDKinds {
		return idKindNames[k]
	}
	return fmt.Sprintf("IDKind(%d)", uint8(k))
}

type (
	ObjectID        uint64
	ReferenceTypeID uint64
	MethodID        uint64
	FieldID         uint64
	FrameID         uint64
)

// IDSizes holds the identifier widths, in bytes, reported by
// VirtualMachine.IDSizes. The zero value means not yet negotiated.
type IDSizes struct {
	FieldID         int
	MethodID        int
	ObjectID        int
	ReferenceTypeID int
	FrameID         int
}

func (s IDSizes) IsKnown() bool {
	return s.FieldID != 0 && s.MethodID != 0 && s.ObjectID != 0 &&
		s.ReferenceTypeID != 0 && s.FrameID != 0
}

func (s IDSizes) widthOf(kind IDKind) int {
	switch kind {
	case IDKindField:
		return s.FieldID
	case IDKindMethod:
		return s.MethodID
	case IDKindObject:
		return s.ObjectID
	case IDKindReferenceType:
		return s.ReferenceTypeID
	case IDKindFrame:
		return s.FrameID
	}
	return 0
}

// Width returns the byte width of kind, or ErrIDSizeUnknown if the table has
// not been negotiated.
func (s IDSizes) Width(kind IDKind) (int, error) {
	w := s.widthOf(kind)
	if w == 0 {
		return 0, fmt.Errorf("%s: %w", kind, ErrIDSizeUnknown)
	}
	return w, nil
}

func (s IDSizes) Validate() error {
	for k := IDKind(0); k < kNumIDKinds; k++ {
		if w := s.widthOf(k); w < 1 || w > 8 {
			return &IDSizeError{Kind: k, Width: w}
		}
	}
	return nil
}

func (s IDSizes) String() string {
	return fmt.Sprintf("field=%d,method=%d,object=%d,refType=%d,frame=%d",
		s.FieldID, s.MethodID, s.ObjectID, s.ReferenceTypeID, s.FrameID)
}

// DecodeIDSizes parses a VirtualMachine.IDSizes reply body and validates it.
func DecodeIDSizes(r *Reader) (sizes IDSizes, err error) {
	fields := []*int{&sizes.FieldID, &sizes.MethodID, &sizes.ObjectID, &sizes.ReferenceTypeID, &sizes.FrameID}
	for _, f := range fields {
		var v int32
		if v, err = r.ReadInt(); err != nil {
			return IDSizes{}, err
		}
		*f = int(v)
	}
	if err = sizes.Validate(); err != nil {
		return IDSizes{}, err
	}
	return
}

// EncodeIDSizes writes the reply body for VirtualMachine.IDSizes.
func EncodeIDSizes(w *Writer, sizes IDSizes) {
	w.AddInt(int32(sizes.FieldID)).
		AddInt(int32(sizes.MethodID)).
		AddInt(int32(sizes.ObjectID)).
		AddInt(int32(sizes.ReferenceTypeID)).
		AddInt(int32(sizes.FrameID))
}
