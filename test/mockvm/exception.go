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

package mockvm

import (
	"sync"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
)

const (
	TestedClassName      = "nsk.jdwp.Event.EXCEPTION.exception001a$TestedThreadClass"
	TestedClassSignature = "Lnsk/jdwp/Event/EXCEPTION/exception001a$TestedThreadClass;"
	ExceptionFieldName   = "exception"

	TestedClassID   = proto.ReferenceTypeID(7)
	MainThread      = proto.ObjectID(0x01)
	TestedThread    = proto.ObjectID(0x71)
	ExceptionObject = proto.ObjectID(0xE9)

	RunMethodID    = proto.MethodID(2)
	ThrowMethodID  = proto.MethodID(3)
	CatchMethodID  = proto.MethodID(4)
	ExceptionField = proto.FieldID(11)

	BreakpointLine = int32(30)
	ThrowLine      = int32(42)
	CatchLine      = int32(55)

	DefaultExitCode = 95
)

var (
	DefaultIDSizes = proto.IDSizes{FieldID: 8, MethodID: 8, ObjectID: 8, ReferenceTypeID: 8, FrameID: 8}

	lineTables = map[proto.MethodID]proto.LineTable{
		RunMethodID: {Start: 0, End: 20, Lines: []proto.LineEntry{
			{CodeIndex: 0, LineNumber: 28}, {CodeIndex: 3, LineNumber: 29}, {CodeIndex: 6, LineNumber: BreakpointLine}, {CodeIndex: 12, LineNumber: 31},
		}},
		ThrowMethodID: {Start: 0, End: 20, Lines: []proto.LineEntry{
			{CodeIndex: 0, LineNumber: 40}, {CodeIndex: 5, LineNumber: 41}, {CodeIndex: 9, LineNumber: ThrowLine}, {CodeIndex: 15, LineNumber: 43},
		}},
		CatchMethodID: {Start: 0, End: 20, Lines: []proto.LineEntry{
			{CodeIndex: 0, LineNumber: 53}, {CodeIndex: 4, LineNumber: 54}, {CodeIndex: 8, LineNumber: CatchLine}, {CodeIndex: 14, LineNumber: 56},
		}},
	}
)

// ExceptionProgram scripts a target that loads the tested class, stops at
// a breakpoint in run, throws an exception caught in methodForCatch and
// exits. Each Resume advances one step.
type ExceptionProgram struct {
	// ThrowIndex replaces the reported throw code index when non-zero.
	ThrowIndex uint64
	// Thread replaces the thread reported with the exception when non-zero.
	Thread proto.ObjectID
	// Uncaught reports a zero catch location.
	Uncaught bool
	// Silent never reports the exception.
	Silent bool
	// DieEarly reports VM_DEATH instead of the exception.
	DieEarly bool
	// EventTrailing is appended to the body of the exception event packet.
	EventTrailing []byte
	// SetReplyTrailing is appended to the EventRequest.Set reply for
	// EXCEPTION requests.
	SetReplyTrailing []byte
	// ExitCode is the status reported on exit, DefaultExitCode when zero.
	ExitCode int

	mtx       sync.Mutex
	nextReqID int32
	requests  map[int32]*proto.EventRequest
	prepared  bool
	stopped   bool
	thrown    bool
	disposed  bool
}

// NewExceptionVM returns a VM running prog with 8-byte identifiers.
func NewExceptionVM(prog *ExceptionProgram) *VM {
	vm := New(DefaultIDSizes)
	prog.Install(vm)
	return vm
}

// VMStart is the event a freshly started target sends first.
func VMStart(vm *VM) *proto.Packet {
	return vm.EventPacket(proto.SuspendAll, proto.Event{
		Kind: proto.EventVMStart, Thread: MainThread, Data: proto.VMStartEvent{},
	})
}

func (p *ExceptionProgram) exitCode() int {
	if p.ExitCode == 0 {
		return DefaultExitCode
	}
	return p.ExitCode
}

func (p *ExceptionProgram) Install(vm *VM) {
	p.requests = make(map[int32]*proto.EventRequest)
	p.nextReqID = 1

	vm.Handle(proto.CmdVMClassesBySignature, p.classesBySignature)
	vm.Handle(proto.CmdRefTypeMethods, p.methods)
	vm.Handle(proto.CmdRefTypeFields, p.fields)
	vm.Handle(proto.CmdRefTypeGetValues, p.getValues)
	vm.Handle(proto.CmdMethodLineTable, p.lineTable)
	vm.Handle(proto.CmdEventRequestSet, p.setRequest)
	vm.Handle(proto.CmdEventRequestClear, p.clearRequest)
	vm.Handle(proto.CmdVMResume, p.resume)
	vm.Handle(proto.CmdVMDispose, p.dispose)
	vm.Handle(proto.CmdVMExit, p.exit)
}

func (p *ExceptionProgram) classesBySignature(vm *VM, cmd *proto.Packet) *proto.Packet {
	sig, err := cmd.Reader(vm.IDSizes()).ReadString()
	if err != nil {
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	var classes []proto.ClassInfo
	p.mtx.Lock()
	if sig == TestedClassSignature && p.prepared {
		classes = append(classes, proto.ClassInfo{
			RefTypeTag: proto.TypeTagClass,
			TypeID:     TestedClassID,
			Status:     proto.ClassStatusVerified | proto.ClassStatusPrepared | proto.ClassStatusInitialized,
		})
	}
	p.mtx.Unlock()
	return vm.Reply(func(w *proto.Writer) { proto.EncodeClasses(w, classes) })
}

func (p *ExceptionProgram) methods(vm *VM, cmd *proto.Packet) *proto.Packet {
	id, err := cmd.Reader(vm.IDSizes()).ReadReferenceTypeID()
	if err != nil || id != TestedClassID {
		return vm.ReplyError(proto.ErrorInvalidClass)
	}
	members := []proto.MemberInfo{
		{ID: 1, Name: "<init>", Signature: "()V"},
		{ID: uint64(RunMethodID), Name: "run", Signature: "()V", ModBits: 0x1},
		{ID: uint64(ThrowMethodID), Name: "methodForThrow", Signature: "()V", ModBits: 0x1},
		{ID: uint64(CatchMethodID), Name: "methodForCatch", Signature: "()V", ModBits: 0x1},
	}
	return vm.Reply(func(w *proto.Writer) { proto.EncodeMembers(w, proto.IDKindMethod, members) })
}

func (p *ExceptionProgram) fields(vm *VM, cmd *proto.Packet) *proto.Packet {
	id, err := cmd.Reader(vm.IDSizes()).ReadReferenceTypeID()
	if err != nil || id != TestedClassID {
		return vm.ReplyError(proto.ErrorInvalidClass)
	}
	members := []proto.MemberInfo{
		{ID: uint64(ExceptionField), Name: ExceptionFieldName, Signature: "Ljava/lang/Throwable;", ModBits: 0x8},
	}
	return vm.Reply(func(w *proto.Writer) { proto.EncodeMembers(w, proto.IDKindField, members) })
}

func (p *ExceptionProgram) getValues(vm *VM, cmd *proto.Packet) *proto.Packet {
	r := cmd.Reader(vm.IDSizes())
	if id, err := r.ReadReferenceTypeID(); err != nil || id != TestedClassID {
		return vm.ReplyError(proto.ErrorInvalidClass)
	}
	n, err := r.ReadInt()
	if err != nil {
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	values := make([]proto.Value, 0, n)
	for i := int32(0); i < n; i++ {
		field, err := r.ReadFieldID()
		if err != nil || field != ExceptionField {
			return vm.ReplyError(proto.ErrorInvalidFieldID)
		}
		values = append(values, proto.ObjectValue(proto.TagObject, ExceptionObject))
	}
	return vm.Reply(func(w *proto.Writer) { proto.EncodeValues(w, values) })
}

func (p *ExceptionProgram) lineTable(vm *VM, cmd *proto.Packet) *proto.Packet {
	r := cmd.Reader(vm.IDSizes())
	if id, err := r.ReadReferenceTypeID(); err != nil || id != TestedClassID {
		return vm.ReplyError(proto.ErrorInvalidClass)
	}
	method, err := r.ReadMethodID()
	if err != nil {
		return vm.ReplyError(proto.ErrorInvalidMethodID)
	}
	table, found := lineTables[method]
	if !found {
		return vm.ReplyError(proto.ErrorAbsentInformation)
	}
	return vm.Reply(func(w *proto.Writer) { proto.EncodeLineTable(w, table) })
}

func (p *ExceptionProgram) setRequest(vm *VM, cmd *proto.Packet) *proto.Packet {
	req, err := proto.DecodeEventRequest(cmd.Reader(vm.IDSizes()))
	if err != nil {
		glog.Warningf("mockvm: bad event request: %s", err)
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	p.mtx.Lock()
	id := p.nextReqID
	p.nextReqID++
	p.requests[id] = req
	p.mtx.Unlock()

	reply := vm.Reply(func(w *proto.Writer) { w.AddInt(id) })
	if req.Kind == proto.EventException && len(p.SetReplyTrailing) != 0 {
		reply = proto.NewReplyPacket(0, proto.ErrorNone, append(reply.Body, p.SetReplyTrailing...))
	}
	return reply
}

func (p *ExceptionProgram) clearRequest(vm *VM, cmd *proto.Packet) *proto.Packet {
	r := cmd.Reader(vm.IDSizes())
	kind, err := r.ReadByte()
	if err != nil {
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	id, err := r.ReadInt()
	if err != nil {
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if req, found := p.requests[id]; found && req.Kind == proto.EventKind(kind) {
		delete(p.requests, id)
	}
	return vm.Reply(nil)
}

// active returns a registered request of kind.
func (p *ExceptionProgram) active(kind proto.EventKind) (int32, *proto.EventRequest) {
	for id, req := range p.requests {
		if req.Kind == kind {
			return id, req
		}
	}
	return 0, nil
}

func (p *ExceptionProgram) resume(vm *VM, cmd *proto.Packet) *proto.Packet {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !p.prepared {
		p.prepared = true
		if id, req := p.active(proto.EventClassPrepare); req != nil {
			vm.Post(vm.EventPacket(req.SuspendPolicy, proto.Event{
				Kind: proto.EventClassPrepare, RequestID: id, Thread: MainThread,
				Data: &proto.ClassPrepareEvent{
					RefTypeTag: proto.TypeTagClass,
					TypeID:     TestedClassID,
					Signature:  TestedClassSignature,
					Status:     proto.ClassStatusVerified | proto.ClassStatusPrepared,
				},
			}))
			return vm.Reply(nil)
		}
	}
	if !p.stopped {
		p.stopped = true
		if id, req := p.active(proto.EventBreakpoint); req != nil {
			loc := proto.Location{TypeTag: proto.TypeTagClass, ClassID: TestedClassID, MethodID: RunMethodID, Index: 6}
			for _, m := range req.Modifiers {
				if m.Kind == proto.ModLocationOnly {
					loc = m.Location
				}
			}
			vm.Post(vm.EventPacket(req.SuspendPolicy, proto.Event{
				Kind: proto.EventBreakpoint, RequestID: id, Thread: TestedThread,
				Data: &proto.BreakpointEvent{Location: loc},
			}))
			return vm.Reply(nil)
		}
	}
	if !p.thrown {
		p.thrown = true
		if p.DieEarly {
			p.die(vm)
			return vm.Reply(nil)
		}
		if id, req := p.active(proto.EventException); req != nil && !p.Silent {
			pk := vm.EventPacket(req.SuspendPolicy, p.exceptionEvent(id))
			pk.Body = append(pk.Body, p.EventTrailing...)
			vm.Post(pk)
			return vm.Reply(nil)
		}
		if p.Silent {
			return vm.Reply(nil)
		}
	}
	p.die(vm)
	return vm.Reply(nil)
}

func (p *ExceptionProgram) exceptionEvent(id int32) proto.Event {
	throwIndex, _ := lineTables[ThrowMethodID].CodeIndex(ThrowLine)
	if p.ThrowIndex != 0 {
		throwIndex = p.ThrowIndex
	}
	thread := TestedThread
	if p.Thread != 0 {
		thread = p.Thread
	}
	ev := &proto.ExceptionEvent{
		Throw:        proto.Location{TypeTag: proto.TypeTagClass, ClassID: TestedClassID, MethodID: ThrowMethodID, Index: throwIndex},
		ExceptionTag: proto.TagObject,
		Exception:    ExceptionObject,
	}
	if !p.Uncaught {
		catchIndex, _ := lineTables[CatchMethodID].CodeIndex(CatchLine)
		ev.Catch = proto.Location{TypeTag: proto.TypeTagClass, ClassID: TestedClassID, MethodID: CatchMethodID, Index: catchIndex}
	}
	return proto.Event{Kind: proto.EventException, RequestID: id, Thread: thread, Data: ev}
}

// die reports VM_DEATH and exits once it is written.
func (p *ExceptionProgram) die(vm *VM) {
	vm.Post(vm.EventPacket(proto.SuspendNone, proto.Event{Kind: proto.EventVMDeath, Data: proto.VMDeathEvent{}}))
	vm.Exit(p.exitCode())
}

func (p *ExceptionProgram) dispose(vm *VM, cmd *proto.Packet) *proto.Packet {
	p.mtx.Lock()
	p.disposed = true
	p.mtx.Unlock()
	vm.Exit(p.exitCode())
	return vm.Reply(nil)
}

func (p *ExceptionProgram) exit(vm *VM, cmd *proto.Packet) *proto.Packet {
	code, err := cmd.Reader(vm.IDSizes()).ReadInt()
	if err != nil {
		return vm.ReplyError(proto.ErrorIllegalArgument)
	}
	vm.Exit(int(code))
	return vm.Reply(nil)
}

// Disposed reports whether the debugger sent VirtualMachine.Dispose.
func (p *ExceptionProgram) Disposed() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.disposed
}
