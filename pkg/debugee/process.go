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
	"context"
)

// Process is the launched or attached target as seen from outside the
// wire: it can tell when the target is ready to be talked to and how it
// exited.
type Process interface {
	WaitReady(ctx context.Context) error
	WaitFor(ctx context.Context) (int, error)
}

// AttachedProcess stands for a target started by someone else. It is
// ready at once and its exit status cannot be observed.
type AttachedProcess struct{}

func (AttachedProcess) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

func (AttachedProcess) WaitFor(ctx context.Context) (int, error) {
	return -1, ErrExitStatusUnavailable
}
