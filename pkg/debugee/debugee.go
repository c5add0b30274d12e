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

// Package debugee drives a JDWP target through the commands a test
// scenario needs: waiting for startup and class loading, resolving
// methods, lines and fields, managing event requests and shutting the
// target down.
//
// Helpers that decode a reply return the decoded value together with a
// *proto.TrailingDataError when the reply carried unparsed bytes. Use
// IsTrailingData to tell that case apart from a failure.
package debugee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/io"
	"jdwpcheck/pkg/logging"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
)

type Debugee struct {
	cfg     Config
	session *cli.Session
	process Process
	dead    bool
}

func New(session *cli.Session, process Process, cfg Config) *Debugee {
	cfg.SetDefaultIfNotDefined()
	return &Debugee{
		cfg:     cfg,
		session: session,
		process: process,
	}
}

// Attach connects to a listening agent at endpoint and returns a debugee
// whose exit status is not observable.
func Attach(ctx context.Context, endpoint *io.ServiceEndpoint, tcfg *io.TransportConfig, cfg Config) (*Debugee, error) {
	tcfg.SetDefaultIfNotDefined()
	conn, err := io.Attach(ctx, endpoint, tcfg)
	if err != nil {
		return nil, err
	}
	session := cli.NewSession(conn, tcfg.SessionConfig(endpoint.Addr))
	return New(session, AttachedProcess{}, cfg), nil
}

// IsTrailingData reports whether err only says that a reply or event had
// unparsed bytes, in which case the values returned with it are valid.
func IsTrailingData(err error) bool {
	return err != nil && errors.Is(err, proto.ErrTrailingData)
}

func (d *Debugee) Session() *cli.Session {
	return d.session
}

func (d *Debugee) Config() Config {
	return d.cfg
}

func (d *Debugee) WaitTime() time.Duration {
	return d.cfg.WaitTime.Duration
}

// IsDead reports whether VM_DEATH has been seen.
func (d *Debugee) IsDead() bool {
	return d.dead
}

func (d *Debugee) MarkDead() {
	d.dead = true
}

// WaitReady waits until the process can be talked to.
func (d *Debugee) WaitReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.WaitTime())
	defer cancel()
	if err := d.process.WaitReady(ctx); err != nil {
		return fmt.Errorf("process not ready: %w", err)
	}
	return nil
}

// WaitForVMInit waits until the target reports VM_START. Only the event
// kind is checked, so it can be called before the identifier sizes are
// known.
func (d *Debugee) WaitForVMInit() error {
	p, err := d.session.AwaitEventPacket(d.WaitTime())
	if err != nil {
		return err
	}
	if !p.IsEvent() {
		return &cli.ProtocolViolationError{Reason: "expected an event", Header: p.Header}
	}
	r := p.Reader(proto.IDSizes{})
	if _, err = r.ReadByte(); err != nil {
		return err
	}
	count, err := r.ReadInt()
	if err != nil {
		return err
	}
	kind, err := r.ReadByte()
	if err != nil {
		return err
	}
	if count != 1 || proto.EventKind(kind) != proto.EventVMStart {
		return fmt.Errorf("%w: %d event(s) starting with %s, expected one %s",
			ErrUnexpectedEvent, count, proto.EventKind(kind), proto.EventVMStart)
	}
	return nil
}

// QueryForIDSizes negotiates the identifier widths of the session.
func (d *Debugee) QueryForIDSizes() (proto.IDSizes, error) {
	return d.session.NegotiateIDSizes()
}

// request sends cmd and returns the reply. A reply body is checked for
// trailing bytes by the caller once it is decoded.
func (d *Debugee) request(cmd proto.Command, build func(w *proto.Writer)) (*cli.Reply, error) {
	reply, err := d.session.Request(cmd, build)
	if err != nil {
		if errors.Is(err, cli.ErrConnectionLost) && !d.dead {
			glog.Warningf("%s: connection lost", cmd)
		}
		return nil, err
	}
	return reply, nil
}

func (d *Debugee) emptyRequest(cmd proto.Command, build func(w *proto.Writer)) error {
	reply, err := d.request(cmd, build)
	if err != nil {
		return err
	}
	return reply.Reader().CheckParsed()
}

func (d *Debugee) Resume() error {
	return d.emptyRequest(proto.CmdVMResume, nil)
}

func (d *Debugee) Dispose() error {
	return d.emptyRequest(proto.CmdVMDispose, nil)
}

// ClassBySignature returns the type ID of a loaded class given its JNI
// signature, e.g. "Ljava/lang/String;".
func (d *Debugee) ClassBySignature(signature string) (proto.ReferenceTypeID, error) {
	reply, err := d.request(proto.CmdVMClassesBySignature, func(w *proto.Writer) {
		w.AddString(signature)
	})
	if err != nil {
		return 0, err
	}
	r := reply.Reader()
	classes, err := proto.DecodeClasses(r)
	if err != nil {
		return 0, err
	}
	if len(classes) == 0 {
		return 0, &NotFoundError{What: "class", Name: signature}
	}
	return classes[0].TypeID, r.CheckParsed()
}

// SetEventRequest registers req and returns the request ID chosen by the
// target.
func (d *Debugee) SetEventRequest(req *proto.EventRequest) (int32, error) {
	reply, err := d.request(proto.CmdEventRequestSet, req.Encode)
	if err != nil {
		return 0, err
	}
	r := reply.Reader()
	id, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("%s %s: %w", proto.CmdEventRequestSet, req, ErrZeroRequestID)
	}
	return id, r.CheckParsed()
}

func (d *Debugee) ClearEventRequest(kind proto.EventKind, id int32) error {
	return d.emptyRequest(proto.CmdEventRequestClear, func(w *proto.Writer) {
		w.AddByte(byte(kind)).AddInt(id)
	})
}

// WaitForEvent returns the next event set within the wait time.
func (d *Debugee) WaitForEvent() (*proto.EventSet, error) {
	set, err := d.session.AwaitEvent(d.WaitTime())
	if set != nil && hasVMDeath(set) {
		d.dead = true
	}
	return set, err
}

// waitForRequestedEvent waits for a single event of kind raised by
// request id.
func (d *Debugee) waitForRequestedEvent(kind proto.EventKind, id int32) (*proto.Event, error) {
	set, err := d.WaitForEvent()
	if set == nil {
		return nil, err
	}
	if len(set.Events) != 1 || set.Events[0].Kind != kind || set.Events[0].RequestID != id {
		return nil, &UnexpectedEventError{Expected: kind, RequestID: id, Set: set}
	}
	if glog.LOG_DEBUG {
		glog.Debugf("received %s", logging.NewKVBufferForLog().AddEventInfo(&set.Events[0]).String())
	}
	return &set.Events[0], err
}

// WaitForClassLoaded resumes the target until the class named className
// (dotted form, patterns allowed) is prepared and returns its type ID.
func (d *Debugee) WaitForClassLoaded(className string, policy proto.SuspendPolicy) (proto.ReferenceTypeID, error) {
	var trailing error
	id, err := d.SetEventRequest(&proto.EventRequest{
		Kind:          proto.EventClassPrepare,
		SuspendPolicy: policy,
		Modifiers:     []proto.EventModifier{proto.ClassMatch(className)},
	})
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	if err = d.Resume(); err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	ev, err := d.waitForRequestedEvent(proto.EventClassPrepare, id)
	if ev == nil {
		return 0, err
	}
	trailing = errors.Join(trailing, err)
	prepared, ok := ev.Data.(*proto.ClassPrepareEvent)
	if !ok {
		return 0, &UnexpectedEventDataError{Kind: ev.Kind, Data: ev.Data}
	}

	if err = d.ClearEventRequest(proto.EventClassPrepare, id); err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)
	glog.Debugf("class %s prepared as %#x", prepared.Signature, uint64(prepared.TypeID))
	return prepared.TypeID, trailing
}

func (d *Debugee) members(cmd proto.Command, kind proto.IDKind, classID proto.ReferenceTypeID) ([]proto.MemberInfo, error) {
	reply, err := d.request(cmd, func(w *proto.Writer) {
		w.AddReferenceTypeID(classID)
	})
	if err != nil {
		return nil, err
	}
	r := reply.Reader()
	members, err := proto.DecodeMembers(r, kind)
	if err != nil {
		return nil, err
	}
	return members, r.CheckParsed()
}

func (d *Debugee) GetMethodID(classID proto.ReferenceTypeID, name string) (proto.MethodID, error) {
	methods, err := d.members(proto.CmdRefTypeMethods, proto.IDKindMethod, classID)
	if methods == nil && err != nil {
		return 0, err
	}
	m, found := proto.FindMember(methods, name)
	if !found {
		return 0, &NotFoundError{What: "method", Name: name}
	}
	return proto.MethodID(m.ID), err
}

func (d *Debugee) GetFieldID(classID proto.ReferenceTypeID, name string) (proto.FieldID, error) {
	fields, err := d.members(proto.CmdRefTypeFields, proto.IDKindField, classID)
	if fields == nil && err != nil {
		return 0, err
	}
	f, found := proto.FindMember(fields, name)
	if !found {
		return 0, &NotFoundError{What: "field", Name: name}
	}
	return proto.FieldID(f.ID), err
}

func (d *Debugee) GetLineTable(classID proto.ReferenceTypeID, methodID proto.MethodID) (proto.LineTable, error) {
	reply, err := d.request(proto.CmdMethodLineTable, func(w *proto.Writer) {
		w.AddReferenceTypeID(classID).AddMethodID(methodID)
	})
	if err != nil {
		return proto.LineTable{}, err
	}
	r := reply.Reader()
	table, err := proto.DecodeLineTable(r)
	if err != nil {
		return proto.LineTable{}, err
	}
	return table, r.CheckParsed()
}

// GetCodeIndex returns the first code index of line in the method.
func (d *Debugee) GetCodeIndex(classID proto.ReferenceTypeID, methodID proto.MethodID, line int32) (uint64, error) {
	table, err := d.GetLineTable(classID, methodID)
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	index, found := table.CodeIndex(line)
	if !found {
		return 0, &NotFoundError{What: "line", Name: fmt.Sprintf("%d in method %#x", line, uint64(methodID))}
	}
	return index, err
}

// GetLineNumber maps loc to a source line. With approximate set, a code
// index between two entries maps to the line of the preceding entry.
func (d *Debugee) GetLineNumber(loc proto.Location, approximate bool) (int32, error) {
	table, err := d.GetLineTable(loc.ClassID, loc.MethodID)
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	line, found := table.LineNumber(loc.Index, approximate)
	if !found {
		return 0, &NotFoundError{What: "line for location", Name: loc.String()}
	}
	return line, err
}

// WaitForBreakpointReached sets a breakpoint at line of the named method,
// resumes the target until it is hit and returns the thread that hit it.
func (d *Debugee) WaitForBreakpointReached(classID proto.ReferenceTypeID, methodName string, line int32, policy proto.SuspendPolicy) (proto.ObjectID, error) {
	var trailing error
	methodID, err := d.GetMethodID(classID, methodName)
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	index, err := d.GetCodeIndex(classID, methodID, line)
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	loc := proto.Location{TypeTag: proto.TypeTagClass, ClassID: classID, MethodID: methodID, Index: index}
	id, err := d.SetEventRequest(&proto.EventRequest{
		Kind:          proto.EventBreakpoint,
		SuspendPolicy: policy,
		Modifiers:     []proto.EventModifier{proto.LocationOnly(loc)},
	})
	if err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	if err = d.Resume(); err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	ev, err := d.waitForRequestedEvent(proto.EventBreakpoint, id)
	if ev == nil {
		return 0, err
	}
	trailing = errors.Join(trailing, err)

	if err = d.ClearEventRequest(proto.EventBreakpoint, id); err != nil && !IsTrailingData(err) {
		return 0, err
	}
	trailing = errors.Join(trailing, err)
	glog.Debugf("breakpoint %s:%d reached by thread %#x", methodName, line, uint64(ev.Thread))
	return ev.Thread, trailing
}

// GetStaticFieldValue reads a static field and checks that its value
// carries tag.
func (d *Debugee) GetStaticFieldValue(classID proto.ReferenceTypeID, name string, tag proto.Tag) (proto.Value, error) {
	fieldID, err := d.GetFieldID(classID, name)
	if err != nil && !IsTrailingData(err) {
		return proto.Value{}, err
	}
	trailing := err

	reply, err := d.request(proto.CmdRefTypeGetValues, func(w *proto.Writer) {
		w.AddReferenceTypeID(classID).AddInt(1).AddFieldID(fieldID)
	})
	if err != nil {
		return proto.Value{}, err
	}
	r := reply.Reader()
	values, err := proto.DecodeValues(r)
	if err != nil {
		return proto.Value{}, err
	}
	if len(values) != 1 {
		return proto.Value{}, fmt.Errorf("%s: %d values for one field: %w", proto.CmdRefTypeGetValues, len(values), proto.ErrOutOfBounds)
	}
	if values[0].Tag != tag {
		return values[0], &UnexpectedTagError{Field: name, Tag: values[0].Tag, Expected: tag}
	}
	return values[0], errors.Join(trailing, r.CheckParsed())
}

// WaitForVMDeath waits until VM_DEATH arrives, skipping other events, for
// at most the wait time.
func (d *Debugee) WaitForVMDeath() error {
	start := time.Now()
	for {
		left := util.RemainingTime(start, d.WaitTime())
		if left == 0 {
			return &cli.TimeoutError{Op: "VM_DEATH", After: d.WaitTime()}
		}
		set, err := d.session.AwaitEvent(left)
		if set == nil {
			if cli.IsTimeout(err) {
				return &cli.TimeoutError{Op: "VM_DEATH", After: d.WaitTime()}
			}
			return err
		}
		if hasVMDeath(set) {
			d.dead = true
			return nil
		}
		glog.Infof("skipping %s while waiting for VM_DEATH", logging.NewKVBufferForLog().AddEventSetInfo(set).String())
	}
}

// Close ends the session.
func (d *Debugee) Close() {
	if n := d.session.NumQueuedEvents(); n > 0 {
		glog.Debugf("closing with %d unconsumed event packet(s)", n)
	}
	d.session.Close()
}

// WaitFor waits for the process to exit within the wait time.
func (d *Debugee) WaitFor() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.WaitTime())
	defer cancel()
	return d.process.WaitFor(ctx)
}

// Quit disposes the target unless it died, closes the session and
// collects the exit status. A failed dispose is only logged.
func (d *Debugee) Quit() (int, error) {
	if !d.dead {
		if err := d.Dispose(); err != nil && !IsTrailingData(err) {
			glog.Warningf("failed to dispose target: %s", err)
		}
	}
	d.Close()
	return d.WaitFor()
}
