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
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smallnest/chanx"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/logging/otel"
	"jdwpcheck/pkg/proto"
)

var (
	kMaxRequestChanBufferSize = 64

	DefaultResponseTimeout   = 60 * time.Second
	DefaultEventQueueInitCap = 16
)

type Config struct {
	Name              string
	ResponseTimeout   time.Duration
	MaxPacketSize     uint32
	EventQueueInitCap int
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = DefaultResponseTimeout
	}
	if c.MaxPacketSize == 0 {
		c.MaxPacketSize = proto.DefaultMaxPacketSize
	}
	if c.EventQueueInitCap <= 0 {
		c.EventQueueInitCap = DefaultEventQueueInitCap
	}
	if c.Name == "" {
		c.Name = "jdwp"
	}
}

// Session multiplexes commands, replies and events over one duplex stream
// whose handshake is already done.
type Session struct {
	cfg  Config
	conn io.ReadWriteCloser

	chDone     chan struct{}
	chProcDone chan struct{}
	chRequest  chan *RequestContext

	events       *chanx.UnboundedChan[*ReaderResponse]
	cancelEvents context.CancelFunc
	eventsOnce   sync.Once

	sizes        atomic.Pointer[proto.IDSizes]
	negotiateMtx sync.Mutex

	stats     *Statistics
	closeOnce sync.Once

	mtx sync.Mutex
	err error
}

// Reply is a successful reply. Its body reader is bound to the ID sizes
// known when the reply arrived.
type Reply struct {
	*proto.Packet
	Command proto.Command
	Elapsed time.Duration
	sizes   proto.IDSizes
}

func (r *Reply) Reader() *proto.Reader {
	return r.Packet.Reader(r.sizes)
}

func NewSession(conn io.ReadWriteCloser, cfg Config) *Session {
	cfg.SetDefaultIfNotDefined()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		conn:         conn,
		chDone:       make(chan struct{}),
		chProcDone:   make(chan struct{}),
		chRequest:    make(chan *RequestContext, kMaxRequestChanBufferSize),
		events:       chanx.NewUnboundedChan[*ReaderResponse](ctx, cfg.EventQueueInitCap),
		cancelEvents: cancel,
		stats:        NewStatistics(),
	}
	glog.Debugf("session %s: response_timeout=%v max_packet=%d", cfg.Name, cfg.ResponseTimeout, cfg.MaxPacketSize)
	chReader := startPacketReader(conn, cfg.MaxPacketSize, s.chProcDone)
	go s.doSessionProcess(chReader)
	return s
}

func (s *Session) Name() string {
	return s.cfg.Name
}

func (s *Session) Stats() *Statistics {
	return s.stats
}

// IDSizes returns the negotiated widths, or the zero value before
// NegotiateIDSizes succeeded.
func (s *Session) IDSizes() proto.IDSizes {
	if p := s.sizes.Load(); p != nil {
		return *p
	}
	return proto.IDSizes{}
}

// Err returns the error that ended the session, or nil while it is usable.
func (s *Session) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.err
}

func (s *Session) setTerminalError(err error) {
	s.mtx.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mtx.Unlock()
}

func (s *Session) closeEventsIn() {
	s.eventsOnce.Do(func() { close(s.events.In) })
}

// Close stops the session and closes the stream. Pending requests fail
// with ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.chDone)
		<-s.chProcDone
		s.cancelEvents()
	})
}

// NegotiateIDSizes asks the target for its identifier widths and fixes
// them for the rest of the session. Later calls return the stored table.
// A reply with unparsed bytes still fixes the widths and returns them
// together with a *proto.TrailingDataError.
func (s *Session) NegotiateIDSizes() (proto.IDSizes, error) {
	s.negotiateMtx.Lock()
	defer s.negotiateMtx.Unlock()

	if p := s.sizes.Load(); p != nil {
		return *p, nil
	}
	reply, err := s.Request(proto.CmdVMIDSizes, nil)
	if err != nil {
		return proto.IDSizes{}, err
	}
	r := reply.Reader()
	sizes, err := proto.DecodeIDSizes(r)
	if err != nil {
		return proto.IDSizes{}, fmt.Errorf("%s: %w", proto.CmdVMIDSizes, err)
	}
	s.sizes.Store(&sizes)
	glog.Infof("session %s: negotiated %s", s.cfg.Name, sizes)
	return sizes, r.CheckParsed()
}

// Request sends cmd with a body built by build, which may be nil, and
// waits for the matching reply. A fresh packet id is assigned by the
// session. Safe for concurrent use.
func (s *Session) Request(cmd proto.Command, build func(w *proto.Writer)) (*Reply, error) {
	var body []byte
	if build != nil {
		w := proto.NewWriter(s.IDSizes())
		build(w)
		if err := w.Err(); err != nil {
			return nil, fmt.Errorf("%s: encode: %w", cmd, err)
		}
		body = w.Bytes()
	}
	return s.process(proto.NewCommandPacket(0, cmd, body), true)
}

// Send writes p with the id it already carries and waits for the reply.
// An id that is still pending fails with *CorrelationReuseError.
func (s *Session) Send(p *proto.Packet) (*Reply, error) {
	return s.process(p, false)
}

func (s *Session) process(p *proto.Packet, assignID bool) (*Reply, error) {
	timeStart := time.Now()
	cmd := p.GetCommand()

	chResponse := make(chan IResponseContext, 1)
	reqCtx := NewRequestContext(p, chResponse)
	reqCtx.assignID = assignID

	select {
	case s.chRequest <- reqCtx:
	case <-s.chProcDone:
		return nil, s.Err()
	}

	var resp IResponseContext
	select {
	case resp = <-chResponse:
	case <-s.chProcDone:
		select {
		case resp = <-chResponse:
		default:
			return nil, s.Err()
		}
	}

	rht := time.Since(timeStart)
	if err := resp.GetError(); err != nil {
		s.stats.Put(cmd, rht, err)
		status := otel.StatusError
		if IsTimeout(err) {
			status = otel.StatusTimeout
		} else if IsFatal(err) {
			status = otel.StatusFatal
		}
		otel.RecordRequest(cmd.String(), status, rht)
		return nil, err
	}

	reply := resp.GetReply()
	if reply.ErrorCode != proto.ErrorNone {
		err := &RemoteError{Command: cmd, Code: reply.ErrorCode}
		s.stats.Put(cmd, rht, err)
		otel.RecordRequest(cmd.String(), otel.StatusError, rht)
		return nil, err
	}
	s.stats.Put(cmd, rht, nil)
	otel.RecordRequest(cmd.String(), otel.StatusSuccess, rht)
	glog.Debugf("%s id=%d rht=%dus", cmd, reply.ID, elapsedMicros(timeStart))
	return &Reply{Packet: reply, Command: cmd, Elapsed: rht, sizes: s.IDSizes()}, nil
}
