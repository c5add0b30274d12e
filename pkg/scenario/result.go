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
	"fmt"
	"time"

	"jdwpcheck/pkg/logging"
	"jdwpcheck/pkg/logging/glog"
)

// Complaint is one observed value that differs from what was expected.
// A complaint fails the run without stopping it.
type Complaint struct {
	Field    string
	Observed interface{}
	Expected interface{}
	Message  string
}

func (c Complaint) String() string {
	if c.Expected == nil {
		return fmt.Sprintf("%s: %s (observed: %v)", c.Field, c.Message, c.Observed)
	}
	return fmt.Sprintf("%s: %s: %v (expected: %v)", c.Field, c.Message, c.Observed, c.Expected)
}

type Result struct {
	RunID      string
	Success    bool
	Complaints []Complaint
	// Failure is the error that aborted the transitions, if any.
	Failure    error
	FinalState State
	ExitStatus int
	Elapsed    time.Duration
}

// Reporter receives progress lines and complaints as they happen.
type Reporter interface {
	Display(msg string)
	Complain(c Complaint)
}

// LogReporter writes to the log, tagging every line with the run ID.
type LogReporter struct {
	RunID string
}

func (r *LogReporter) Display(msg string) {
	if glog.LOG_INFO {
		glog.InfoDepth(1, logging.NewKVBufferForLog().AddRunID(r.RunID).String(), " ", msg)
	}
}

func (r *LogReporter) Complain(c Complaint) {
	glog.ErrorDepth(1, logging.NewKVBufferForLog().AddRunID(r.RunID).String(), " ", c.String())
}

type multiReporter []Reporter

// MultiReporter fans out to every reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

func (m multiReporter) Display(msg string) {
	for _, r := range m {
		r.Display(msg)
	}
}

func (m multiReporter) Complain(c Complaint) {
	for _, r := range m {
		r.Complain(c)
	}
}
