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

package debugee

import (
	"time"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/util"
)

const (
	// ExitStatusBase is the exit status of a target that passed.
	ExitStatusBase = 95
)

var DefaultConfig = Config{
	WaitTime:           util.Duration{Duration: 2 * time.Minute},
	ExpectedExitStatus: ExitStatusBase,
}

type Config struct {
	// WaitTime bounds every wait for a reply, an event or the target's exit.
	WaitTime util.Duration
	// ExpectedExitStatus is the status a well behaved target exits with.
	// Zero means ExitStatusBase.
	ExpectedExitStatus int
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.WaitTime.Duration <= 0 {
		c.WaitTime = DefaultConfig.WaitTime
	}
	if c.ExpectedExitStatus == 0 {
		c.ExpectedExitStatus = DefaultConfig.ExpectedExitStatus
	}
}

func (c *Config) Dump() {
	glog.Infof("debugee: wait_time=%s expected_exit_status=%d", c.WaitTime.Duration, c.ExpectedExitStatus)
}
