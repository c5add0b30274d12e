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

/*
Package util implements some utility functions.
*/
package util

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// Duration is a time.Duration that reads and writes as text, so it can be
// used directly in TOML configuration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() (text []byte, err error) {
	text = []byte(d.Duration.String())
	return
}

// NewRunID returns a random identifier used to tag one harness run in logs
// and metrics.
func NewRunID() string {
	return uuid.NewV4().String()
}

// RemainingTime returns how much of a budget started at start is left,
// never less than zero.
func RemainingTime(start time.Time, budget time.Duration) time.Duration {
	left := budget - time.Since(start)
	if left < 0 {
		return 0
	}
	return left
}
