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

// Package glog wraps github.com/golang/glog with level gates so callers can
// check the log level before formatting arguments.
package glog

import (
	"flag"
	"fmt"
	"strings"

	gl "github.com/golang/glog"
)

type Verbose bool

// default is LOG_INFO
var (
	LOG_ERROR   Verbose = true
	LOG_WARN    Verbose = true
	LOG_INFO    Verbose = true
	LOG_DEBUG   Verbose = false
	LOG_VERBOSE Verbose = false
)

func levelOf(level string) string {
	switch {
	case strings.EqualFold("error", level):
		return "1"
	case strings.EqualFold("warning", level):
		return "2"
	case strings.EqualFold("debug", level):
		return "4"
	case strings.EqualFold("verbose", level):
		return "5"
	}
	return "3"
}

// InitLogging directs output to stderr and maps a level name
// (error, warning, info, debug, verbose) onto glog's -v.
func InitLogging(level string, appName string) {
	if f := flag.Lookup("logtostderr"); f != nil {
		f.Value.Set("true")
	}
	if f := flag.Lookup("v"); f != nil {
		f.Value.Set(levelOf(level))
	}

	LOG_ERROR = Verbose(gl.V(1))
	LOG_WARN = Verbose(gl.V(2))
	LOG_INFO = Verbose(gl.V(3))
	LOG_DEBUG = Verbose(gl.V(4))
	LOG_VERBOSE = Verbose(gl.V(5))

	if appName != "" {
		Debugf("logging initialized for %s at level %s", appName, level)
	}
}

func Flush() {
	gl.Flush()
}

func Info(args ...interface{}) {
	if LOG_INFO {
		gl.InfoDepth(1, args...)
	}
}

func InfoDepth(depth int, args ...interface{}) {
	if LOG_INFO {
		gl.InfoDepth(depth+1, args...)
	}
}

func Infoln(args ...interface{}) {
	if LOG_INFO {
		gl.InfoDepth(1, fmt.Sprintln(args...))
	}
}

func Infof(format string, args ...interface{}) {
	if LOG_INFO {
		gl.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Warning(args ...interface{}) {
	if LOG_WARN {
		gl.WarningDepth(1, args...)
	}
}

func WarningDepth(depth int, args ...interface{}) {
	if LOG_WARN {
		gl.WarningDepth(depth+1, args...)
	}
}

func Warningln(args ...interface{}) {
	if LOG_WARN {
		gl.WarningDepth(1, fmt.Sprintln(args...))
	}
}

func Warningf(format string, args ...interface{}) {
	if LOG_WARN {
		gl.WarningDepth(1, fmt.Sprintf(format, args...))
	}
}

func Error(args ...interface{}) {
	if LOG_ERROR {
		gl.ErrorDepth(1, args...)
	}
}

func ErrorDepth(depth int, args ...interface{}) {
	if LOG_ERROR {
		gl.ErrorDepth(depth+1, args...)
	}
}

func Errorln(args ...interface{}) {
	if LOG_ERROR {
		gl.ErrorDepth(1, fmt.Sprintln(args...))
	}
}

func Errorf(format string, args ...interface{}) {
	if LOG_ERROR {
		gl.ErrorDepth(1, fmt.Sprintf(format, args...))
	}
}

// Debug and Verbose levels are written through the info stream.
func Debug(args ...interface{}) {
	if LOG_DEBUG {
		gl.InfoDepth(1, args...)
	}
}

func DebugDepth(depth int, args ...interface{}) {
	if LOG_DEBUG {
		gl.InfoDepth(depth+1, args...)
	}
}

func Debugln(args ...interface{}) {
	if LOG_DEBUG {
		gl.InfoDepth(1, fmt.Sprintln(args...))
	}
}

func Debugf(format string, args ...interface{}) {
	if LOG_DEBUG {
		gl.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Verbosef(format string, args ...interface{}) {
	if LOG_VERBOSE {
		gl.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Fatal(args ...interface{}) {
	gl.FatalDepth(1, args...)
}

func Fatalf(format string, args ...interface{}) {
	gl.FatalDepth(1, fmt.Sprintf(format, args...))
}
