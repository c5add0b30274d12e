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

package cli

import (
	"time"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
)

// GetReply() != nil and GetError() != nil are mutually exclusive
type IResponseContext interface {
	GetReply() *proto.Packet
	GetError() error
	GetID() uint32
}

type RequestContext struct {
	request    *proto.Packet
	assignID   bool
	timeSent   time.Time
	chResponse chan IResponseContext
}

type ResponseContext struct {
	reply *proto.Packet
}

type ErrResponseContext struct {
	id  uint32
	err error
}

// ReaderResponse is what the packet reader hands to the session loop.
type ReaderResponse struct {
	packet *proto.Packet
	err    error
}

func NewReaderResponse(p *proto.Packet) *ReaderResponse {
	return &ReaderResponse{packet: p}
}

func NewErrorReaderResponse(err error) *ReaderResponse {
	return &ReaderResponse{err: err}
}

// NewRequestContext expects chResponse to have room for one value so the
// session loop never blocks on a caller that stopped waiting.
func NewRequestContext(p *proto.Packet, chResponse chan IResponseContext) *RequestContext {
	return &RequestContext{
		request:    p,
		chResponse: chResponse,
	}
}

func (r *ResponseContext) GetReply() *proto.Packet {
	return r.reply
}

func (r *ResponseContext) GetID() uint32 {
	return r.reply.ID
}

func (r *ResponseContext) GetError() error {
	return nil
}

func (r *ErrResponseContext) GetReply() *proto.Packet {
	return nil
}

func (r *ErrResponseContext) GetID() uint32 {
	return r.id
}

func (r *ErrResponseContext) GetError() error {
	return r.err
}

func (r *RequestContext) GetRequest() *proto.Packet {
	return r.request
}

func (r *RequestContext) Reply(reply *proto.Packet) {
	if reply == nil {
		glog.Fatal("nil reply")
	}
	select {
	case r.chResponse <- &ResponseContext{reply}:
	default:
		glog.Warningf("reply for id=%d dropped, caller gone", reply.ID)
	}
}

func (r *RequestContext) ReplyError(err error) {
	glog.DebugDepth(1, err)
	select {
	case r.chResponse <- &ErrResponseContext{r.request.ID, err}:
	default:
		glog.Warningf("error for id=%d dropped, caller gone: %s", r.request.ID, err)
	}
}
