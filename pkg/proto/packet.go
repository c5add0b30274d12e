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
	"io"
	"strings"

	"jdwpcheck/pkg/util"
)

// Header is the fixed part of every packet. CommandSet and Command are set
// on commands; ErrorCode is set on replies. Length is filled in by Encode.
type Header struct {
	Length     uint32
	ID         uint32
	Flags      uint8
	CommandSet uint8
	Command    uint8
	ErrorCode  ErrorCode
}

func (h *Header) IsReply() bool {
	return h.Flags&FlagReply != 0
}

func (h *Header) GetCommand() Command {
	return Command{h.CommandSet, h.Command}
}

func (h *Header) encode(raw []byte) {
	EncByteOrder.PutUint32(raw[0:4], h.Length)
	EncByteOrder.PutUint32(raw[4:8], h.ID)
	raw[8] = h.Flags
	if h.IsReply() {
		EncByteOrder.PutUint16(raw[9:11], uint16(h.ErrorCode))
	} else {
		raw[9] = h.CommandSet
		raw[10] = h.Command
	}
}

// DecodeHeader parses the first HeaderSize bytes of raw.
func DecodeHeader(raw []byte) (h Header, err error) {
	if len(raw) < HeaderSize {
		err = &BoundError{Field: "header", Offset: 0, Need: HeaderSize, Avail: len(raw)}
		return
	}
	h.Length = EncByteOrder.Uint32(raw[0:4])
	h.ID = EncByteOrder.Uint32(raw[4:8])
	h.Flags = raw[8]
	if h.IsReply() {
		h.ErrorCode = ErrorCode(EncByteOrder.Uint16(raw[9:11]))
	} else {
		h.CommandSet = raw[9]
		h.Command = raw[10]
	}
	return
}

func (h *Header) checkLength(maxSize uint32) error {
	if maxSize == 0 {
		maxSize = DefaultMaxPacketSize
	}
	if h.Length < HeaderSize || h.Length > maxSize {
		return &PacketLengthError{Length: h.Length, Max: maxSize}
	}
	return nil
}

type Packet struct {
	Header
	Body []byte
}

func NewCommandPacket(id uint32, cmd Command, body []byte) *Packet {
	return &Packet{
		Header: Header{ID: id, CommandSet: cmd.Set, Command: cmd.Cmd},
		Body:   body,
	}
}

func NewReplyPacket(id uint32, code ErrorCode, body []byte) *Packet {
	return &Packet{
		Header: Header{ID: id, Flags: FlagReply, ErrorCode: code},
		Body:   body,
	}
}

// IsEvent reports whether p is an Event.Composite command.
func (p *Packet) IsEvent() bool {
	return !p.IsReply() && p.GetCommand() == CmdEventComposite
}

// Encode sets Length and returns the wire bytes.
func (p *Packet) Encode() []byte {
	p.Length = uint32(HeaderSize + len(p.Body))
	raw := make([]byte, p.Length)
	p.Header.encode(raw)
	copy(raw[HeaderSize:], p.Body)
	return raw
}

// DecodePacket parses exactly one packet occupying all of raw.
func DecodePacket(raw []byte) (*Packet, error) {
	h, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	// a length that disagrees with raw means bytes are missing somewhere
	switch {
	case h.Length < HeaderSize:
		return nil, &BoundError{Field: "length", Offset: 0, Need: HeaderSize, Avail: int(h.Length)}
	case h.Length > uint32(len(raw)):
		return nil, &BoundError{Field: "body", Offset: HeaderSize, Need: int(h.Length) - HeaderSize, Avail: len(raw) - HeaderSize}
	}
	p := &Packet{Header: h, Body: raw[HeaderSize:h.Length]}
	if int(h.Length) < len(raw) {
		return p, &TrailingDataError{Offset: int(h.Length), Extra: len(raw) - int(h.Length)}
	}
	return p, nil
}

// Read reads one packet from r. A length field outside [HeaderSize,
// maxSize] yields a *PacketLengthError and the stream should be treated as
// unusable. maxSize 0 means DefaultMaxPacketSize.
func (p *Packet) Read(r io.Reader, maxSize uint32) (n int, err error) {
	var hBuffer [HeaderSize]byte
	if n, err = io.ReadFull(r, hBuffer[:]); err != nil {
		if n != 0 && err == io.ErrUnexpectedEOF {
			err = NewProtocolError(fmt.Errorf("short header: %w", err))
		}
		return
	}
	if p.Header, err = DecodeHeader(hBuffer[:]); err != nil {
		return
	}
	if err = p.Header.checkLength(maxSize); err != nil {
		return
	}
	p.Body = make([]byte, p.Length-HeaderSize)
	var nbody int
	nbody, err = io.ReadFull(r, p.Body)
	n += nbody
	return
}

// Write writes the encoded packet. It is not safe for concurrent use on
// the same writer.
func (p *Packet) Write(w io.Writer) (n int, err error) {
	return w.Write(p.Encode())
}

// Reader returns a body reader bound to sizes.
func (p *Packet) Reader(sizes IDSizes) *Reader {
	return NewReader(p.Body, sizes)
}

func (p *Packet) String() string {
	if p.IsReply() {
		return fmt.Sprintf("reply{id=%d,len=%d,err=%s}", p.ID, p.Length, p.ErrorCode)
	}
	return fmt.Sprintf("command{id=%d,len=%d,cmd=%s}", p.ID, p.Length, p.GetCommand())
}

// HexDump returns the packet as a printable hex dump, for verbose logging.
func (p *Packet) HexDump() string {
	var sb strings.Builder
	sb.WriteString(p.String())
	sb.WriteByte('\n')
	util.HexDump(&sb, p.Encode())
	return sb.String()
}
