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
)

type State uint8

const (
	StateCreated State = iota
	StateLaunched
	StateInitialized
	StatePrepared
	StateEventRequested
	StateResumed
	StateEventAwaited
	StateEventRequestCleared
	StateResumedAgain
	StateTerminated
	StateFailed
	kNumStates
)

var stateNames = [kNumStates]string{
	"Created",
	"Launched",
	"Initialized",
	"Prepared",
	"EventRequested",
	"Resumed",
	"EventAwaited",
	"EventRequestCleared",
	"ResumedAgain",
	"Terminated",
	"Failed",
}

func (s State) String() string {
	if s < kNumStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateTerminated || s == StateFailed
}
