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

// Package scenario runs lifecycle checks against a debug target and
// collects their verdict.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"jdwpcheck/pkg/debugee"
	"jdwpcheck/pkg/logging"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
)

const (
	testedEventKind   = proto.EventException
	testedEventPolicy = proto.SuspendAll
)

type transition func() (State, error)

// ExceptionScenario checks that a target reports a caught exception with
// the expected thread, exception object and throw and catch locations.
type ExceptionScenario struct {
	cfg      ExceptionConfig
	debugee  *debugee.Debugee
	reporter Reporter

	state  State
	result Result

	classID      proto.ReferenceTypeID
	throwLoc     proto.Location
	catchLoc     proto.Location
	thread       proto.ObjectID
	exceptionObj proto.ObjectID
	requestID    int32
}

func NewExceptionScenario(d *debugee.Debugee, cfg ExceptionConfig, reporter Reporter) *ExceptionScenario {
	cfg.SetDefaultIfNotDefined()
	runID := util.NewRunID()
	if reporter == nil {
		reporter = &LogReporter{RunID: runID}
	}
	return &ExceptionScenario{
		cfg:      cfg,
		debugee:  d,
		reporter: reporter,
		state:    StateCreated,
		result:   Result{RunID: runID},
	}
}

func (s *ExceptionScenario) State() State {
	return s.state
}

func (s *ExceptionScenario) RunID() string {
	return s.result.RunID
}

// SetReporter replaces the reporter. It must be called before Run.
func (s *ExceptionScenario) SetReporter(r Reporter) {
	if r != nil {
		s.reporter = r
	}
}

func (s *ExceptionScenario) display(format string, args ...interface{}) {
	s.reporter.Display(fmt.Sprintf(format, args...))
}

func (s *ExceptionScenario) complain(field string, observed, expected interface{}, msg string) {
	c := Complaint{Field: field, Observed: observed, Expected: expected, Message: msg}
	s.result.Complaints = append(s.result.Complaints, c)
	s.reporter.Complain(c)
}

// checkTrailing turns a trailing data error into a complaint and returns
// whatever else err carried.
func (s *ExceptionScenario) checkTrailing(what string, err error) error {
	if err == nil {
		return nil
	}
	if debugee.IsTrailingData(err) {
		var trailing *proto.TrailingDataError
		errors.As(err, &trailing)
		s.complain(what, trailing.Extra, 0, "extra trailing bytes")
		return nil
	}
	return err
}

func (s *ExceptionScenario) transitions() map[State]transition {
	return map[State]transition{
		StateCreated:             s.launch,
		StateLaunched:            s.initialize,
		StateInitialized:         s.prepare,
		StatePrepared:            s.requestTestedEvent,
		StateEventRequested:      s.resume,
		StateResumed:             s.waitForTestedEvent,
		StateEventAwaited:        s.clearTestedRequest,
		StateEventRequestCleared: s.resumeAgain,
		StateResumedAgain:        s.waitForVMDeath,
	}
}

func (s *ExceptionScenario) setState(next State) {
	if glog.LOG_DEBUG {
		glog.Debugf("%s", logging.NewKVBufferForLog().AddRunID(s.result.RunID).
			Add([]byte("from"), s.state.String()).AddState(next.String()).String())
	}
	s.state = next
}

// Run drives the target through every state until it terminates or a
// transition fails, then always disposes of the target and collects its
// exit status.
func (s *ExceptionScenario) Run() *Result {
	start := time.Now()
	transitions := s.transitions()

	for !s.state.IsTerminal() {
		next, err := transitions[s.state]()
		if err != nil {
			s.result.Failure = fmt.Errorf("%s: %w", s.state, err)
			s.reporter.Complain(Complaint{Field: "state", Observed: s.state, Message: "TEST FAILED: " + err.Error()})
			s.setState(StateFailed)
			break
		}
		s.setState(next)
	}
	s.quit()

	s.result.FinalState = s.state
	s.result.Success = s.result.Failure == nil && len(s.result.Complaints) == 0
	s.result.Elapsed = time.Since(start)
	if s.result.Success {
		s.display("TEST PASSED")
	} else {
		s.display("TEST FAILED")
	}
	return &s.result
}

func (s *ExceptionScenario) launch() (State, error) {
	s.display("waiting for target to be ready")
	if err := s.debugee.WaitReady(); err != nil {
		return StateFailed, err
	}
	return StateLaunched, nil
}

func (s *ExceptionScenario) initialize() (State, error) {
	s.display("waiting for VM_START")
	if err := s.debugee.WaitForVMInit(); err != nil {
		return StateFailed, err
	}
	s.display("querying for IDSizes")
	sizes, err := s.debugee.QueryForIDSizes()
	if err = s.checkTrailing("VirtualMachine.IDSizes reply", err); err != nil {
		return StateFailed, err
	}
	s.display("  ... got %s", sizes)
	return StateInitialized, nil
}

func (s *ExceptionScenario) prepare() (State, error) {
	var err error
	d := s.debugee

	s.display("waiting for class %s to be loaded", s.cfg.ClassName)
	s.classID, err = d.WaitForClassLoaded(s.cfg.ClassName, testedEventPolicy)
	if err = s.checkTrailing("class prepare", err); err != nil {
		return StateFailed, err
	}
	s.display("  ... got classID %#x", uint64(s.classID))

	if s.throwLoc, err = s.resolveLocation(s.cfg.ThrowMethod, s.cfg.ThrowLine); err != nil {
		return StateFailed, err
	}
	s.display("  ... throw location %s", s.throwLoc)
	if s.catchLoc, err = s.resolveLocation(s.cfg.CatchMethod, s.cfg.CatchLine); err != nil {
		return StateFailed, err
	}
	s.display("  ... catch location %s", s.catchLoc)

	s.display("waiting for breakpoint at %s:%d", s.cfg.BreakpointMethod, s.cfg.BreakpointLine)
	s.thread, err = d.WaitForBreakpointReached(s.classID, s.cfg.BreakpointMethod, s.cfg.BreakpointLine, testedEventPolicy)
	if err = s.checkTrailing("breakpoint", err); err != nil {
		return StateFailed, err
	}
	s.display("  ... reached by thread %#x", uint64(s.thread))

	value, err := d.GetStaticFieldValue(s.classID, s.cfg.ExceptionField, proto.TagObject)
	if err = s.checkTrailing("ReferenceType.GetValues reply", err); err != nil {
		return StateFailed, err
	}
	s.exceptionObj = value.ObjectID()
	s.display("  ... exception object %#x", uint64(s.exceptionObj))
	return StatePrepared, nil
}

func (s *ExceptionScenario) resolveLocation(method string, line int32) (proto.Location, error) {
	methodID, err := s.debugee.GetMethodID(s.classID, method)
	if err = s.checkTrailing("ReferenceType.Methods reply", err); err != nil {
		return proto.Location{}, err
	}
	index, err := s.debugee.GetCodeIndex(s.classID, methodID, line)
	if err = s.checkTrailing("Method.LineTable reply", err); err != nil {
		return proto.Location{}, err
	}
	return proto.Location{TypeTag: proto.TypeTagClass, ClassID: s.classID, MethodID: methodID, Index: index}, nil
}

func (s *ExceptionScenario) requestTestedEvent() (State, error) {
	s.display("requesting %s events for class %s", testedEventKind, s.cfg.ClassName)
	id, err := s.debugee.SetEventRequest(&proto.EventRequest{
		Kind:          testedEventKind,
		SuspendPolicy: testedEventPolicy,
		Modifiers:     []proto.EventModifier{proto.ClassOnly(s.classID)},
	})
	if err = s.checkTrailing("EventRequest.Set reply", err); err != nil {
		return StateFailed, err
	}
	s.requestID = id
	s.display("  ... got requestID %d", id)
	return StateEventRequested, nil
}

func (s *ExceptionScenario) resume() (State, error) {
	if err := s.checkTrailing("VirtualMachine.Resume reply", s.debugee.Resume()); err != nil {
		return StateFailed, err
	}
	return StateResumed, nil
}

func (s *ExceptionScenario) waitForTestedEvent() (State, error) {
	s.display("waiting for %s event", testedEventKind)
	set, err := s.debugee.WaitForEvent()
	if set == nil {
		return StateFailed, err
	}
	if err = s.checkTrailing("event packet", err); err != nil {
		return StateFailed, err
	}

	if set.SuspendPolicy != testedEventPolicy {
		s.complain("suspendPolicy", set.SuspendPolicy, testedEventPolicy, "unexpected suspend policy")
	}
	if len(set.Events) != 1 {
		s.complain("events", len(set.Events), 1, "unexpected number of events")
	}
	for i := range set.Events {
		ev := &set.Events[i]
		prefix := fmt.Sprintf("event[%d].", i)
		if ev.Kind != testedEventKind {
			return StateFailed, &debugee.UnexpectedEventError{Expected: testedEventKind, RequestID: s.requestID, Set: set}
		}
		if ev.RequestID != s.requestID {
			s.complain(prefix+"requestID", ev.RequestID, s.requestID, "unexpected request ID")
		}
		if ev.Thread != s.thread {
			s.complain(prefix+"thread", hexID(ev.Thread), hexID(s.thread), "unexpected thread")
		}
		ex, ok := ev.Data.(*proto.ExceptionEvent)
		if !ok {
			return StateFailed, &debugee.UnexpectedEventDataError{Kind: ev.Kind, Data: ev.Data}
		}
		s.checkLocation(prefix+"throw", ex.Throw, s.throwLoc, s.cfg.ThrowLine)
		if ex.ExceptionTag != proto.TagObject {
			s.complain(prefix+"exception.tag", ex.ExceptionTag, proto.TagObject, "unexpected exception tag")
		}
		if ex.Exception != s.exceptionObj {
			s.complain(prefix+"exception.object", hexID(ex.Exception), hexID(s.exceptionObj), "unexpected exception object")
		}
		s.checkLocation(prefix+"catch", ex.Catch, s.catchLoc, s.cfg.CatchLine)
	}
	return StateEventAwaited, nil
}

// checkLocation compares the type tag, class and method strictly. A code
// index that differs is accepted when it maps to the expected line.
func (s *ExceptionScenario) checkLocation(field string, loc, expected proto.Location, line int32) {
	if loc.TypeTag != expected.TypeTag {
		s.complain(field+".tag", loc.TypeTag, expected.TypeTag, "unexpected class tag")
	}
	if loc.ClassID != expected.ClassID {
		s.complain(field+".classID", hexID(loc.ClassID), hexID(expected.ClassID), "unexpected class")
	}
	if loc.MethodID != expected.MethodID {
		s.complain(field+".methodID", hexID(loc.MethodID), hexID(expected.MethodID), "unexpected method")
	}
	if loc.Index == expected.Index {
		return
	}
	lineNumber, err := s.debugee.GetLineNumber(loc, true)
	if err = s.checkTrailing("Method.LineTable reply", err); err != nil {
		s.complain(field+".line", loc, line, "unable to get line number: "+err.Error())
		return
	}
	if lineNumber != line {
		s.complain(field+".line", lineNumber, line, "unexpected line number")
		return
	}
	s.display("code index of %s location is %d (expected: %d), though its line is as expected: %d",
		field, loc.Index, expected.Index, line)
}

func (s *ExceptionScenario) clearTestedRequest() (State, error) {
	s.display("clearing request %d", s.requestID)
	err := s.debugee.ClearEventRequest(testedEventKind, s.requestID)
	if err = s.checkTrailing("EventRequest.Clear reply", err); err != nil {
		return StateFailed, err
	}
	return StateEventRequestCleared, nil
}

func (s *ExceptionScenario) resumeAgain() (State, error) {
	if err := s.checkTrailing("VirtualMachine.Resume reply", s.debugee.Resume()); err != nil {
		return StateFailed, err
	}
	return StateResumedAgain, nil
}

func (s *ExceptionScenario) waitForVMDeath() (State, error) {
	s.display("waiting for VM_DEATH")
	if err := s.debugee.WaitForVMDeath(); err != nil {
		return StateFailed, err
	}
	return StateTerminated, nil
}

// quit runs after every run, passed or failed.
func (s *ExceptionScenario) quit() {
	d := s.debugee
	if !d.IsDead() {
		s.display("disposing target")
		if err := d.Dispose(); err != nil && !debugee.IsTrailingData(err) {
			s.display("failed to finally dispose target: %s", err)
		}
	}
	d.Close()

	code, err := d.WaitFor()
	s.result.ExitStatus = code
	switch {
	case errors.Is(err, debugee.ErrExitStatusUnavailable):
		s.display("target exit status is not observable")
	case err != nil:
		s.complain("exitStatus", err.Error(), d.Config().ExpectedExitStatus, "unable to collect exit status")
	case code != d.Config().ExpectedExitStatus:
		s.complain("exitStatus", code, d.Config().ExpectedExitStatus, "target FAILED")
	default:
		s.display("target exited with status %d", code)
	}
}

type hexID uint64

func (h hexID) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}
