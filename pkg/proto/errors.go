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

type ProtocolError struct {
	what string
}

func (e *ProtocolError) Error() string {
	return "ProtocolError: " + e.what
}

func NewProtocolError(err error) *ProtocolError {
	return &ProtocolError{err.Error()}
}

var (
	ErrOutOfBounds          = &ProtocolError{"read past end of buffer"}
	ErrTrailingData         = &ProtocolError{"unparsed trailing bytes"}
	ErrInvalidPacketLength  = &ProtocolError{"invalid packet length"}
	ErrUnsupportedEventKind = &ProtocolError{"unsupported event kind"}
	ErrIDSizeUnknown        = &ProtocolError{"identifier sizes not negotiated"}
	ErrInvalidIDSize        = &ProtocolError{"invalid identifier size"}
	ErrNotEventPacket       = &ProtocolError{"not an Event.Composite command"}
	ErrBadHandshake         = &ProtocolError{"bad handshake"}
	ErrUnknownTag           = &ProtocolError{"unknown value tag"}
	ErrUnsupportedModifier  = &ProtocolError{"unsupported event modifier"}
)

// BoundError reports a field that does not fit in the remaining bytes.
type BoundError struct {
	Field  string
	Offset int
	Need   int
	Avail  int
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("ProtocolError: %s at offset %d needs %d bytes, %d available",
		e.Field, e.Offset, e.Need, e.Avail)
}

func (e *BoundError) Unwrap() error { return ErrOutOfBounds }

// TrailingDataError reports bytes left over after a body was fully decoded.
// Values decoded before it was detected remain valid.
type TrailingDataError struct {
	Offset int
	Extra  int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("ProtocolError: %d extra bytes after offset %d", e.Extra, e.Offset)
}

func (e *TrailingDataError) Unwrap() error { return ErrTrailingData }

type UnsupportedEventKindError struct {
	Kind EventKind
}

func (e *UnsupportedEventKindError) Error() string {
	return "ProtocolError: unsupported event kind " + e.Kind.String()
}

func (e *UnsupportedEventKindError) Unwrap() error { return ErrUnsupportedEventKind }

type PacketLengthError struct {
	Length uint32
	Max    uint32
}

func (e *PacketLengthError) Error() string {
	return fmt.Sprintf("ProtocolError: packet length %d outside [%d, %d]", e.Length, HeaderSize, e.Max)
}

func (e *PacketLengthError) Unwrap() error { return ErrInvalidPacketLength }

type IDSizeError struct {
	Kind  IDKind
	Width int
}

func (e *IDSizeError) Error() string {
	return fmt.Sprintf("ProtocolError: %s width %d not in [1, 8]", e.Kind, e.Width)
}

func (e *IDSizeError) Unwrap() error { return ErrInvalidIDSize }
