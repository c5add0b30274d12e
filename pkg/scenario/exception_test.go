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

package scenario

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/debugee"
	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
	"jdwpcheck/test/mockvm"
)

type recordingReporter struct {
	mtx        sync.Mutex
	lines      []string
	complaints []Complaint
}

func (r *recordingReporter) Display(msg string) {
	r.mtx.Lock()
	r.lines = append(r.lines, msg)
	r.mtx.Unlock()
}

func (r *recordingReporter) Complain(c Complaint) {
	r.mtx.Lock()
	r.complaints = append(r.complaints, c)
	r.mtx.Unlock()
}

func (r *recordingReporter) displayed(substr string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, l := range r.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func testConfig() ExceptionConfig {
	return ExceptionConfig{
		ClassName:      mockvm.TestedClassName,
		BreakpointLine: mockvm.BreakpointLine,
		ThrowLine:      mockvm.ThrowLine,
		CatchLine:      mockvm.CatchLine,
	}
}

func runScenario(t *testing.T, prog *mockvm.ExceptionProgram, waitTime time.Duration) (*Result, *recordingReporter) {
	vm := mockvm.NewExceptionVM(prog)
	conn := vm.Pipe(false, mockvm.VMStart(vm))
	session := cli.NewSession(conn, cli.Config{Name: t.Name(), ResponseTimeout: 5 * time.Second})
	defer vm.Close()

	d := debugee.New(session, vm.Process(), debugee.Config{WaitTime: util.Duration{Duration: waitTime}})
	reporter := &recordingReporter{}
	s := NewExceptionScenario(d, testConfig(), MultiReporter(reporter, &LogReporter{RunID: t.Name()}))
	assert.Equal(t, StateCreated, s.State())
	return s.Run(), reporter
}

func fields(complaints []Complaint) []string {
	var names []string
	for _, c := range complaints {
		names = append(names, c.Field)
	}
	return names
}

func TestExceptionScenarioPasses(t *testing.T) {
	prog := &mockvm.ExceptionProgram{}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.True(t, result.Success, "complaints: %v failure: %v", result.Complaints, result.Failure)
	assert.Empty(t, result.Complaints)
	assert.NoError(t, result.Failure)
	assert.Equal(t, StateTerminated, result.FinalState)
	assert.Equal(t, debugee.ExitStatusBase, result.ExitStatus)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, prog.Disposed())
}

func TestCodeIndexDriftOnSameLineIsAccepted(t *testing.T) {
	// reported (CLASS,7,3,12) against expected (CLASS,7,3,9), both on line 42
	prog := &mockvm.ExceptionProgram{ThrowIndex: 12}
	result, reporter := runScenario(t, prog, 5*time.Second)

	assert.True(t, result.Success, "complaints: %v", result.Complaints)
	assert.True(t, reporter.displayed("though its line is as expected: 42"))
}

func TestCodeIndexOnOtherLineIsRejected(t *testing.T) {
	prog := &mockvm.ExceptionProgram{ThrowIndex: 15}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.NoError(t, result.Failure)
	require.Len(t, result.Complaints, 1)
	c := result.Complaints[0]
	assert.Equal(t, "event[0].throw.line", c.Field)
	assert.Equal(t, int32(43), c.Observed)
	assert.Equal(t, mockvm.ThrowLine, c.Expected)
}

func TestNoEventTimesOut(t *testing.T) {
	prog := &mockvm.ExceptionProgram{Silent: true}
	start := time.Now()
	result, _ := runScenario(t, prog, time.Second)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.False(t, result.Success)
	require.Error(t, result.Failure)
	assert.True(t, cli.IsTimeout(result.Failure))
	assert.False(t, errors.Is(result.Failure, proto.ErrOutOfBounds))
	assert.Equal(t, StateFailed, result.FinalState)
	assert.True(t, prog.Disposed())
	assert.Equal(t, debugee.ExitStatusBase, result.ExitStatus)
}

func TestTrailingDataInRequestReply(t *testing.T) {
	prog := &mockvm.ExceptionProgram{SetReplyTrailing: []byte{0xCA, 0xFE}}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.NoError(t, result.Failure)
	assert.Equal(t, StateTerminated, result.FinalState)
	require.Len(t, result.Complaints, 1)
	assert.Equal(t, "EventRequest.Set reply", result.Complaints[0].Field)
	assert.Equal(t, 2, result.Complaints[0].Observed)
}

func TestTrailingDataInEventPacket(t *testing.T) {
	prog := &mockvm.ExceptionProgram{EventTrailing: []byte{0x00, 0x01, 0x02}}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.NoError(t, result.Failure)
	assert.Equal(t, StateTerminated, result.FinalState)
	require.Len(t, result.Complaints, 1)
	assert.Equal(t, "event packet", result.Complaints[0].Field)
	assert.Equal(t, 3, result.Complaints[0].Observed)
}

// recordedException is what a decoder registered by a user of the codec
// might return for EXCEPTION events.
type recordedException struct {
	proto.ExceptionEvent
}

func decodeExceptionEvent(r *proto.Reader) (*proto.ExceptionEvent, error) {
	e := &proto.ExceptionEvent{}
	var err error
	if e.Throw, err = r.ReadLocation(); err != nil {
		return nil, err
	}
	if e.ExceptionTag, e.Exception, err = r.ReadTaggedObjectID(); err != nil {
		return nil, err
	}
	if e.Catch, err = r.ReadLocation(); err != nil {
		return nil, err
	}
	return e, nil
}

func TestReplacedExceptionDecoderFailsCleanly(t *testing.T) {
	proto.RegisterEventDecoder(proto.EventException, true, func(r *proto.Reader) (proto.EventData, error) {
		e, err := decodeExceptionEvent(r)
		if err != nil {
			return nil, err
		}
		return &recordedException{*e}, nil
	})
	t.Cleanup(func() {
		proto.RegisterEventDecoder(proto.EventException, true, func(r *proto.Reader) (proto.EventData, error) {
			e, err := decodeExceptionEvent(r)
			if err != nil {
				return nil, err
			}
			return e, nil
		})
	})

	prog := &mockvm.ExceptionProgram{}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	require.Error(t, result.Failure)
	var derr *debugee.UnexpectedEventDataError
	require.True(t, errors.As(result.Failure, &derr))
	assert.Equal(t, proto.EventException, derr.Kind)
	assert.True(t, errors.Is(result.Failure, debugee.ErrUnexpectedEvent))
	assert.Equal(t, StateFailed, result.FinalState)
	assert.True(t, prog.Disposed())
	assert.Equal(t, debugee.ExitStatusBase, result.ExitStatus)
}

func TestWrongThreadIsComplainedAbout(t *testing.T) {
	prog := &mockvm.ExceptionProgram{Thread: 0x72}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.NoError(t, result.Failure)
	assert.Equal(t, []string{"event[0].thread"}, fields(result.Complaints))
	assert.Equal(t, "0x72", result.Complaints[0].Observed.(hexID).String())
}

func TestUncaughtExceptionIsComplainedAbout(t *testing.T) {
	prog := &mockvm.ExceptionProgram{Uncaught: true}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.NoError(t, result.Failure)
	for _, f := range fields(result.Complaints) {
		assert.True(t, strings.HasPrefix(f, "event[0].catch."), f)
	}
	assert.Contains(t, fields(result.Complaints), "event[0].catch.classID")
}

func TestEarlyVMDeathFails(t *testing.T) {
	prog := &mockvm.ExceptionProgram{DieEarly: true}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Failure, debugee.ErrVMDeath))
	assert.Equal(t, StateFailed, result.FinalState)
	assert.False(t, prog.Disposed())
	assert.Equal(t, debugee.ExitStatusBase, result.ExitStatus)
}

func TestUnexpectedExitStatus(t *testing.T) {
	prog := &mockvm.ExceptionProgram{ExitCode: 97}
	result, _ := runScenario(t, prog, 5*time.Second)

	assert.False(t, result.Success)
	assert.Equal(t, StateTerminated, result.FinalState)
	assert.Equal(t, []string{"exitStatus"}, fields(result.Complaints))
	assert.Equal(t, 97, result.ExitStatus)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "EventRequestCleared", StateEventRequestCleared.String())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateResumedAgain.IsTerminal())
	assert.Equal(t, "State(200)", State(200).String())
}

func TestExceptionConfig(t *testing.T) {
	cfg := ExceptionConfig{}
	cfg.SetDefaultIfNotDefined()
	assert.Equal(t, DefaultExceptionConfig.ClassName, cfg.ClassName)
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	assert.NoError(t, cfg.Validate())
}
