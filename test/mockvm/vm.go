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

// Package mockvm is an in-process JDWP target for tests. It speaks the
// wire protocol over any net.Conn and answers commands with registered
// handlers.
package mockvm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
)

// Handler answers cmd. A nil reply means the command is never answered.
// The reply's ID is set by the VM.
type Handler func(vm *VM, cmd *proto.Packet) *proto.Packet

type VM struct {
	sizes proto.IDSizes

	mtx      sync.Mutex
	handlers map[proto.Command]Handler
	commands []proto.Command
	posted   []*proto.Packet
	exiting  bool
	exitCode int

	wmtx sync.Mutex
	conn net.Conn

	chDone chan struct{}
	chExit chan int
	once   sync.Once
}

func New(sizes proto.IDSizes) *VM {
	vm := &VM{
		sizes:    sizes,
		handlers: make(map[proto.Command]Handler),
		chDone:   make(chan struct{}),
		chExit:   make(chan int, 1),
	}
	vm.Handle(proto.CmdVMIDSizes, func(vm *VM, cmd *proto.Packet) *proto.Packet {
		return vm.Reply(func(w *proto.Writer) { proto.EncodeIDSizes(w, vm.sizes) })
	})
	return vm
}

func (vm *VM) IDSizes() proto.IDSizes {
	return vm.sizes
}

func (vm *VM) Handle(cmd proto.Command, h Handler) {
	vm.mtx.Lock()
	vm.handlers[cmd] = h
	vm.mtx.Unlock()
}

// Commands returns the commands received so far, in order.
func (vm *VM) Commands() []proto.Command {
	vm.mtx.Lock()
	defer vm.mtx.Unlock()
	return append([]proto.Command(nil), vm.commands...)
}

func (vm *VM) Done() <-chan struct{} {
	return vm.chDone
}

// Reply builds a successful reply with a body written by build.
func (vm *VM) Reply(build func(w *proto.Writer)) *proto.Packet {
	var body []byte
	if build != nil {
		w := proto.NewWriter(vm.sizes)
		build(w)
		if err := w.Err(); err != nil {
			glog.Errorf("mockvm: reply encoding: %s", err)
		}
		body = w.Bytes()
	}
	return proto.NewReplyPacket(0, proto.ErrorNone, body)
}

func (vm *VM) ReplyError(code proto.ErrorCode) *proto.Packet {
	return proto.NewReplyPacket(0, code, nil)
}

// EventPacket encodes an Event.Composite command.
func (vm *VM) EventPacket(policy proto.SuspendPolicy, events ...proto.Event) *proto.Packet {
	w := proto.NewWriter(vm.sizes)
	set := &proto.EventSet{SuspendPolicy: policy, Events: events}
	set.Encode(w)
	if err := w.Err(); err != nil {
		glog.Errorf("mockvm: event encoding: %s", err)
	}
	return proto.NewCommandPacket(0, proto.CmdEventComposite, w.Bytes())
}

// Post queues p to be written after the reply of the command being
// handled. Outside a handler it is written with the next reply.
func (vm *VM) Post(p *proto.Packet) {
	vm.mtx.Lock()
	vm.posted = append(vm.posted, p)
	vm.mtx.Unlock()
}

// Exit makes the VM close the connection after the current reply and
// posted packets are written, and report code as its exit status.
func (vm *VM) Exit(code int) {
	vm.mtx.Lock()
	vm.exiting = true
	vm.exitCode = code
	vm.mtx.Unlock()
}

// SendPacket writes p now.
func (vm *VM) SendPacket(p *proto.Packet) error {
	vm.wmtx.Lock()
	defer vm.wmtx.Unlock()
	if vm.conn == nil {
		return fmt.Errorf("mockvm: not connected")
	}
	_, err := p.Write(vm.conn)
	return err
}

func (vm *VM) SendEvent(policy proto.SuspendPolicy, events ...proto.Event) error {
	return vm.SendPacket(vm.EventPacket(policy, events...))
}

// SendRaw writes b as is.
func (vm *VM) SendRaw(b []byte) error {
	vm.wmtx.Lock()
	defer vm.wmtx.Unlock()
	_, err := vm.conn.Write(b)
	return err
}

// Pipe serves one end of an in-memory connection and returns the other.
// With handshake set the client must send the handshake first.
func (vm *VM) Pipe(handshake bool, first ...*proto.Packet) net.Conn {
	client, server := net.Pipe()
	vm.Serve(server, handshake, first...)
	return client
}

// Accept serves the first connection accepted on ln with a handshake.
func (vm *VM) Accept(ln net.Listener, first ...*proto.Packet) {
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			glog.Debugf("mockvm: accept: %s", err)
			return
		}
		vm.Serve(conn, true, first...)
	}()
}

// Serve handles conn until it closes. Packets in first are written right
// after the handshake.
func (vm *VM) Serve(conn net.Conn, handshake bool, first ...*proto.Packet) {
	vm.wmtx.Lock()
	vm.conn = conn
	vm.wmtx.Unlock()

	go func() {
		defer vm.finish()
		if handshake {
			if err := serverHandshake(conn); err != nil {
				glog.Warningf("mockvm: handshake: %s", err)
				return
			}
		}
		for _, p := range first {
			if err := vm.SendPacket(p); err != nil {
				return
			}
		}
		for {
			cmd := &proto.Packet{}
			if _, err := cmd.Read(conn, 0); err != nil {
				glog.Debugf("mockvm: read: %s", err)
				return
			}
			if !vm.process(cmd) {
				return
			}
		}
	}()
}

func (vm *VM) process(cmd *proto.Packet) bool {
	vm.mtx.Lock()
	vm.commands = append(vm.commands, cmd.GetCommand())
	h, found := vm.handlers[cmd.GetCommand()]
	vm.mtx.Unlock()

	var reply *proto.Packet
	if found {
		reply = h(vm, cmd)
	} else {
		reply = vm.ReplyError(proto.ErrorNotImplemented)
	}
	if reply != nil {
		reply.ID = cmd.ID
		if err := vm.SendPacket(reply); err != nil {
			return false
		}
	}

	vm.mtx.Lock()
	posted := vm.posted
	vm.posted = nil
	exiting := vm.exiting
	vm.mtx.Unlock()

	for _, p := range posted {
		if err := vm.SendPacket(p); err != nil {
			return false
		}
	}
	return !exiting
}

func (vm *VM) finish() {
	vm.Close()
	vm.mtx.Lock()
	code, exiting := vm.exitCode, vm.exiting
	vm.mtx.Unlock()
	if !exiting {
		// connection dropped without an orderly exit
		code = 1
	}
	vm.once.Do(func() {
		vm.chExit <- code
		close(vm.chDone)
	})
}

func (vm *VM) Close() {
	vm.wmtx.Lock()
	if vm.conn != nil {
		vm.conn.Close()
	}
	vm.wmtx.Unlock()
}

func serverHandshake(conn net.Conn) error {
	buf := make([]byte, len(proto.Handshake))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, []byte(proto.Handshake)) {
		return fmt.Errorf("%q: %w", buf, proto.ErrBadHandshake)
	}
	_, err := conn.Write(buf)
	return err
}

// Process reports the VM's exit status the way a launched target would.
type Process struct {
	vm *VM

	mtx  sync.Mutex
	code *int
}

func (vm *VM) Process() *Process {
	return &Process{vm: vm}
}

func (p *Process) WaitReady(ctx context.Context) error {
	return nil
}

// WaitFor blocks until the VM stopped serving and returns its exit status.
func (p *Process) WaitFor(ctx context.Context) (int, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.code != nil {
		return *p.code, nil
	}
	select {
	case code := <-p.vm.chExit:
		p.code = &code
		return code, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
