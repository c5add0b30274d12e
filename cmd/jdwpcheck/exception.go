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
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jdwpcheck/pkg/debugee"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/scenario"
)

type exceptionOptions struct {
	wait           time.Duration
	className      string
	breakpointLine int32
	throwLine      int32
	catchLine      int32
}

func newExceptionCommand(common *commonOptions) *cobra.Command {
	opts := &exceptionOptions{}
	cmd := &cobra.Command{
		Use:   "exception",
		Short: "Checks the EXCEPTION event of a target running the exception test program",
		Long: `Attaches to the target, stops at a breakpoint in the tested thread, requests
EXCEPTION events for the tested class and checks the thread, exception object,
throw and catch locations of the reported event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runException(cmd, common, opts)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (opts *exceptionOptions) addFlags(flags *pflag.FlagSet) {
	flags.DurationVarP(&opts.wait, "wait", "w", 0, "budget for every reply, event wait and the target's exit")
	flags.StringVar(&opts.className, "class", "", "tested class name")
	flags.Int32Var(&opts.breakpointLine, "breakpoint-line", 0, "line of the breakpoint in the tested thread's run method")
	flags.Int32Var(&opts.throwLine, "throw-line", 0, "line the exception is thrown at")
	flags.Int32Var(&opts.catchLine, "catch-line", 0, "line the exception is caught at")
}

// apply overrides cfg with the flags given on the command line. --wait
// also caps the reply timeout.
func (opts *exceptionOptions) apply(flags *pflag.FlagSet, cfg *Config) {
	if flags.Changed("wait") {
		cfg.Debugee.WaitTime.Duration = opts.wait
		if opts.wait > 0 && opts.wait < cfg.Transport.ResponseTimeout.Duration {
			cfg.Transport.ResponseTimeout.Duration = opts.wait
		}
	}
	if flags.Changed("class") {
		cfg.Scenario.ClassName = opts.className
	}
	if flags.Changed("breakpoint-line") {
		cfg.Scenario.BreakpointLine = opts.breakpointLine
	}
	if flags.Changed("throw-line") {
		cfg.Scenario.ThrowLine = opts.throwLine
	}
	if flags.Changed("catch-line") {
		cfg.Scenario.CatchLine = opts.catchLine
	}
}

func runException(cmd *cobra.Command, common *commonOptions, opts *exceptionOptions) error {
	cfg, cleanup, err := setup(cmd, common)
	if err != nil {
		return err
	}
	defer cleanup()

	opts.apply(cmd.Flags(), cfg)
	if err = cfg.Scenario.Validate(); err != nil {
		return err
	}
	cfg.Scenario.Dump()
	cfg.Debugee.Dump()

	d, err := debugee.Attach(cmd.Context(), &cfg.Target, &cfg.Transport, cfg.Debugee)
	if err != nil {
		glog.Errorf("failed to attach to %s: %s", cfg.Target.String(), err)
		renderAttachFailure(cmd.OutOrStdout(), cfg.Target.String(), err)
		return fmt.Errorf("%w: %s", errTestFailed, err)
	}

	s := scenario.NewExceptionScenario(d, cfg.Scenario, nil)
	reporter := scenario.MultiReporter(
		&scenario.LogReporter{RunID: s.RunID()},
		&consoleReporter{w: cmd.OutOrStdout(), verbose: common.verbose},
	)
	s.SetReporter(reporter)
	result := s.Run()

	renderResult(cmd.OutOrStdout(), result)
	if common.verbose {
		d.Session().Stats().PrettyPrint(cmd.OutOrStdout())
	}
	if !result.Success {
		return errTestFailed
	}
	return nil
}
