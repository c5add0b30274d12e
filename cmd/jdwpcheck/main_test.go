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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdwpcheck/test/mockvm"
)

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "jdwpcheck.toml")
	content := `
LogLevel = "debug"

[Target]
Addr = "127.0.0.1:9000"

[Debugee]
WaitTime = "5s"

[Scenario]
BreakpointLine = 30
ThrowLine = 42
CatchLine = 55
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := loadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", cfg.Target.Addr)
	assert.Equal(t, 5*time.Second, cfg.Debugee.WaitTime.Duration)
	assert.Equal(t, 95, cfg.Debugee.ExpectedExitStatus)
	assert.Equal(t, int32(42), cfg.Scenario.ThrowLine)
	assert.Equal(t, "methodForThrow", cfg.Scenario.ThrowMethod)
	assert.NoError(t, cfg.Scenario.Validate())
	assert.Contains(t, cfg.String(), "127.0.0.1:9000")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000", cfg.Target.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Debugee.WaitTime.Duration)
	assert.Error(t, cfg.Scenario.Validate())

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestExceptionFlagsOverrideConfig(t *testing.T) {
	for _, tc := range []struct {
		name     string
		args     []string
		wait     time.Duration
		response time.Duration
	}{
		{"wait caps reply timeout", []string{"--wait", "5s"}, 5 * time.Second, 5 * time.Second},
		{"long wait keeps reply timeout", []string{"--wait", "5m"}, 5 * time.Minute, 60 * time.Second},
		{"no wait", nil, 2 * time.Minute, 60 * time.Second},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := loadConfig("")
			require.NoError(t, err)

			opts := &exceptionOptions{}
			flags := pflag.NewFlagSet("exception", pflag.ContinueOnError)
			opts.addFlags(flags)
			require.NoError(t, flags.Parse(append(tc.args, "--throw-line", "42")))
			opts.apply(flags, cfg)

			assert.Equal(t, tc.wait, cfg.Debugee.WaitTime.Duration)
			assert.Equal(t, tc.response, cfg.Transport.ResponseTimeout.Duration)
			assert.Equal(t, int32(42), cfg.Scenario.ThrowLine)
			assert.Equal(t, int32(0), cfg.Scenario.CatchLine)
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func listenVM(t *testing.T, prog *mockvm.ExceptionProgram) (*mockvm.VM, string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	vm := mockvm.NewExceptionVM(prog)
	t.Cleanup(vm.Close)
	vm.Accept(ln, mockvm.VMStart(vm))
	return vm, ln.Addr().String()
}

func lineFlags() []string {
	return []string{
		"--breakpoint-line", fmt.Sprint(mockvm.BreakpointLine),
		"--throw-line", fmt.Sprint(mockvm.ThrowLine),
		"--catch-line", fmt.Sprint(mockvm.CatchLine),
	}
}

func TestExceptionCommandPasses(t *testing.T) {
	_, addr := listenVM(t, &mockvm.ExceptionProgram{})

	out, err := execute(t, append([]string{"exception", "-a", addr, "--wait", "5s", "--log-level", "error"}, lineFlags()...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "TEST PASSED")
}

func TestExceptionCommandReportsComplaints(t *testing.T) {
	_, addr := listenVM(t, &mockvm.ExceptionProgram{Thread: mockvm.TestedThread + 1})

	out, err := execute(t, append([]string{"exception", "-a", addr, "--wait", "5s", "--log-level", "error"}, lineFlags()...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTestFailed))
	assert.Contains(t, out, "event[0].thread")
	assert.Contains(t, out, "TEST FAILED")
}

func TestExceptionCommandRequiresLines(t *testing.T) {
	_, err := execute(t, "exception", "-a", "127.0.0.1:1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errTestFailed))
}

func TestExceptionCommandAttachFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	file := filepath.Join(t.TempDir(), "jdwpcheck.toml")
	content := "[Transport]\nConnectTimeout = \"200ms\"\nAttachTimeout = \"1s\"\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	out, err := execute(t, append([]string{"exception", "-c", file, "-a", addr, "--log-level", "error"}, lineFlags()...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTestFailed))
	assert.Contains(t, out, "unable to attach")
}

func TestIDSizesCommand(t *testing.T) {
	_, addr := listenVM(t, &mockvm.ExceptionProgram{})

	out, err := execute(t, "idsizes", "-a", addr, "--log-level", "error")
	require.NoError(t, err, out)
	assert.Contains(t, out, "referenceTypeID")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version")
}
