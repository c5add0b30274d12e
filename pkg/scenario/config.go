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

	"jdwpcheck/pkg/logging/glog"
)

// ExceptionConfig names the class, members and source lines of the
// target program the exception scenario runs against.
type ExceptionConfig struct {
	ClassName        string
	ExceptionField   string
	BreakpointMethod string
	ThrowMethod      string
	CatchMethod      string
	BreakpointLine   int32
	ThrowLine        int32
	CatchLine        int32
}

var DefaultExceptionConfig = ExceptionConfig{
	ClassName:        "nsk.jdwp.Event.EXCEPTION.exception001a$TestedThreadClass",
	ExceptionField:   "exception",
	BreakpointMethod: "run",
	ThrowMethod:      "methodForThrow",
	CatchMethod:      "methodForCatch",
}

func (c *ExceptionConfig) SetDefaultIfNotDefined() {
	if c.ClassName == "" {
		c.ClassName = DefaultExceptionConfig.ClassName
	}
	if c.ExceptionField == "" {
		c.ExceptionField = DefaultExceptionConfig.ExceptionField
	}
	if c.BreakpointMethod == "" {
		c.BreakpointMethod = DefaultExceptionConfig.BreakpointMethod
	}
	if c.ThrowMethod == "" {
		c.ThrowMethod = DefaultExceptionConfig.ThrowMethod
	}
	if c.CatchMethod == "" {
		c.CatchMethod = DefaultExceptionConfig.CatchMethod
	}
}

// Validate requires the source lines, which depend on how the target
// was compiled and have no default.
func (c *ExceptionConfig) Validate() error {
	if c.BreakpointLine <= 0 {
		return fmt.Errorf("breakpoint line not specified")
	}
	if c.ThrowLine <= 0 {
		return fmt.Errorf("throw line not specified")
	}
	if c.CatchLine <= 0 {
		return fmt.Errorf("catch line not specified")
	}
	return nil
}

func (c *ExceptionConfig) Dump() {
	glog.Infof("scenario: class=%s field=%s breakpoint=%s:%d throw=%s:%d catch=%s:%d",
		c.ClassName, c.ExceptionField,
		c.BreakpointMethod, c.BreakpointLine,
		c.ThrowMethod, c.ThrowLine,
		c.CatchMethod, c.CatchLine)
}
