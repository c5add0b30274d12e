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
	"errors"
	"io"
	"time"

	"jdwpcheck/pkg/io/ioutil"
	"jdwpcheck/pkg/logging"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
)

const kMaxReaderChanBufferSize = 64

// startPacketReader reads packets from r until it fails. The last value
// sent before the channel closes carries the error.
func startPacketReader(r io.Reader, maxSize uint32, chDone <-chan struct{}) <-chan *ReaderResponse {
	chReaderResponse := make(chan *ReaderResponse, kMaxReaderChanBufferSize)
	go func() {
		defer func() {
			close(chReaderResponse)
			glog.Verbosef("reader exits")
		}()

		send := func(resp *ReaderResponse) bool {
			select {
			case chReaderResponse <- resp:
				return true
			case <-chDone:
				return false
			}
		}

		for {
			p := &proto.Packet{}
			if _, err := p.Read(r, maxSize); err != nil {
				ioutil.LogError(err)
				send(NewErrorReaderResponse(err))
				return
			}
			if glog.LOG_VERBOSE {
				glog.Verbosef("<- %s", p.HexDump())
			}
			if !send(NewReaderResponse(p)) {
				return
			}
		}
	}()
	return chReaderResponse
}

// doSessionProcess is the only goroutine that writes to the connection or
// touches the pending tracker and the packet id sequence.
func (s *Session) doSessionProcess(chReader <-chan *ReaderResponse) {
	defer close(s.chProcDone)

	tracker := newPendingTracker(s.cfg.ResponseTimeout)
	var sequence uint32

	for {
		select {
		case <-s.chDone:
			glog.Verbosef("session done channel got notified")
			tracker.ClearOnError(ErrSessionClosed)
			s.setTerminalError(ErrSessionClosed)
			s.conn.Close()
			s.closeEventsIn()
			return

		case now := <-tracker.GetTimeoutCh():
			tracker.OnTimeout(now)

		case r := <-s.chRequest:
			req := r.GetRequest()
			if r.assignID {
				sequence++
				if sequence == 0 {
					sequence++
				}
				req.ID = sequence
			}
			if tracker.IsPending(req.ID) {
				glog.Errorf("packet id %d still pending", req.ID)
				r.ReplyError(&CorrelationReuseError{ID: req.ID})
				continue
			}
			if _, err := req.Write(s.conn); err != nil {
				ioErr := &IOError{err}
				r.ReplyError(ioErr)
				glog.Warningf("write failed: %s", err)
				s.teardown(tracker, ioErr)
				return
			}
			if glog.LOG_DEBUG {
				glog.Debugf("-> %s", logging.NewKVBufferForLog().AddPacketInfo(req).String())
			}
			if glog.LOG_VERBOSE {
				glog.Verbosef("-> %s", req.HexDump())
			}
			if err := tracker.OnRequestSent(r, req.ID); err != nil {
				glog.Errorf("packet id %d: %s", req.ID, err)
				r.ReplyError(err)
			}

		case rr, ok := <-chReader:
			if !ok {
				s.teardown(tracker, &IOError{io.ErrUnexpectedEOF})
				return
			}
			if rr.err != nil {
				s.teardown(tracker, readerError(rr.err))
				return
			}
			s.dispatch(tracker, rr.packet)
		}
	}
}

func (s *Session) dispatch(tracker *PendingTracker, p *proto.Packet) {
	if glog.LOG_DEBUG {
		glog.Debugf("<- %s", logging.NewKVBufferForLog().AddPacketInfo(p).String())
	}
	switch {
	case p.IsReply():
		tracker.OnReplyReceived(p)
	case p.Flags == 0 && p.IsEvent():
		s.events.In <- NewReaderResponse(p)
	default:
		err := &ProtocolViolationError{Reason: "packet is neither a reply nor an event", Header: p.Header}
		glog.Error(err)
		if tracker.NumPending() != 0 {
			tracker.ClearOnError(err)
		} else {
			s.events.In <- NewErrorReaderResponse(err)
		}
	}
}

// readerError maps what the packet reader failed with to the error every
// waiter sees. A bad length leaves the stream unframed, so it is both a
// violation and a lost connection.
func readerError(err error) error {
	var lerr *proto.PacketLengthError
	if errors.As(err, &lerr) {
		return &IOError{&ProtocolViolationError{Reason: "malformed packet length", Err: err}}
	}
	return &IOError{err}
}

// teardown fails every waiter with err and closes the connection. Queued
// events stay readable; the error is delivered after them.
func (s *Session) teardown(tracker *PendingTracker, err error) {
	glog.Infof("session %s lost: %s", s.cfg.Name, err)
	tracker.OnResponseReaderClosed(err)
	s.setTerminalError(err)
	s.events.In <- NewErrorReaderResponse(err)
	s.conn.Close()
	s.closeEventsIn()
}

func elapsedMicros(since time.Time) int64 {
	return time.Since(since).Microseconds()
}
