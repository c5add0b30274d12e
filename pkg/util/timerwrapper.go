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

package util

import (
	"time"
)

// TimerWrapper works around the time.Timer.Reset issue described in
// https://github.com/golang/go/issues/11513
//
// timer.C is buffered, so if the timer has just expired,
// the newly reset timer can actually trigger immediately.
type TimerWrapper struct {
	t       *time.Timer
	stopped bool
}

// NewTimerWrapper returns a stopped timer. A stopped timer has a nil channel,
// so selecting on it blocks forever.
func NewTimerWrapper(d time.Duration) *TimerWrapper {
	t := &TimerWrapper{
		t:       time.NewTimer(d),
		stopped: true,
	}

	t.t.Stop()
	return t
}

func (t *TimerWrapper) GetTimeoutCh() <-chan time.Time {
	if t.stopped {
		return nil
	}
	return t.t.C
}

func (t *TimerWrapper) IsStopped() bool {
	return t.stopped
}

func (t *TimerWrapper) Stop() {
	if t.stopped {
		return
	}

	// drain so a fired but unread value does not leak into the next Reset
	if !t.t.Stop() {
		select {
		case <-t.t.C:
		default:
		}
	}

	t.stopped = true
}

func (t *TimerWrapper) Reset(d time.Duration) {
	if !t.stopped {
		t.Stop()
	}

	t.t.Reset(d)
	t.stopped = false
}

// ResetAt arms the timer to fire at deadline, or immediately if it has passed.
func (t *TimerWrapper) ResetAt(deadline time.Time) {
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}
