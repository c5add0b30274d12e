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
	"context"
	"time"

	"jdwpcheck/pkg/logging"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/logging/otel"
	"jdwpcheck/pkg/proto"
)

// NumQueuedEvents returns how many event packets wait to be consumed.
func (s *Session) NumQueuedEvents() int {
	return s.events.Len()
}

// AwaitEventPacket returns the next event packet in arrival order. Packets
// that arrived before the call are returned first.
func (s *Session) AwaitEventPacket(timeout time.Duration) (*proto.Packet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	p, err := s.AwaitEventPacketContext(ctx)
	if err == context.DeadlineExceeded {
		return nil, &TimeoutError{Op: "event", After: timeout}
	}
	return p, err
}

func (s *Session) AwaitEventPacketContext(ctx context.Context) (*proto.Packet, error) {
	select {
	case rr, ok := <-s.events.Out:
		if !ok {
			if err := s.Err(); err != nil {
				return nil, err
			}
			return nil, ErrSessionClosed
		}
		if rr.err != nil {
			return nil, rr.err
		}
		return rr.packet, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitEvent waits for the next event packet and decodes it with the
// session's ID sizes. A set with unparsed bytes is returned together with
// a *proto.TrailingDataError.
func (s *Session) AwaitEvent(timeout time.Duration) (*proto.EventSet, error) {
	p, err := s.AwaitEventPacket(timeout)
	if err != nil {
		return nil, err
	}
	set, err := proto.DecodeEventPacket(p, s.IDSizes())
	if set == nil {
		glog.Warningf("undecodable event packet: %s", err)
		return nil, err
	}
	for i := range set.Events {
		otel.RecordEvent(set.Events[i].Kind.String())
	}
	if glog.LOG_DEBUG {
		glog.Debugf("event %s", logging.NewKVBufferForLog().AddEventSetInfo(set).String())
	}
	return set, err
}
