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

package io

import (
	"time"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
)

var (
	DefaultTransportConfig = TransportConfig{
		ConnectTimeout:        util.Duration{Duration: 2 * time.Second},
		AttachTimeout:         util.Duration{Duration: 30 * time.Second},
		HandshakeTimeout:      util.Duration{Duration: 5 * time.Second},
		ResponseTimeout:       util.Duration{Duration: 60 * time.Second},
		ReconnectIntervalBase: 100,  // 100ms
		ReconnectIntervalMax:  2000, // 2 seconds
		MaxPacketSize:         proto.DefaultMaxPacketSize,
		EventQueueInitCap:     16,
	}
)

type (
	TransportConfig struct {
		ConnectTimeout   util.Duration
		AttachTimeout    util.Duration
		HandshakeTimeout util.Duration
		ResponseTimeout  util.Duration
		// milliseconds
		ReconnectIntervalBase int
		ReconnectIntervalMax  int
		MaxPacketSize         uint32
		EventQueueInitCap     int
	}
)

func (conf *TransportConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultTransportConfig.ConnectTimeout
	}
	if conf.AttachTimeout.Duration == 0 {
		set = true
		conf.AttachTimeout = DefaultTransportConfig.AttachTimeout
	}
	if conf.HandshakeTimeout.Duration == 0 {
		set = true
		conf.HandshakeTimeout = DefaultTransportConfig.HandshakeTimeout
	}
	if conf.ResponseTimeout.Duration == 0 {
		set = true
		conf.ResponseTimeout = DefaultTransportConfig.ResponseTimeout
	}
	if conf.AttachTimeout.Duration < conf.ConnectTimeout.Duration {
		set = true
		conf.AttachTimeout.Duration = conf.ConnectTimeout.Duration
	}
	if conf.ReconnectIntervalBase == 0 {
		set = true
		conf.ReconnectIntervalBase = DefaultTransportConfig.ReconnectIntervalBase
	}
	if conf.ReconnectIntervalMax == 0 {
		set = true
		conf.ReconnectIntervalMax = DefaultTransportConfig.ReconnectIntervalMax
	}
	if conf.MaxPacketSize == 0 {
		set = true
		conf.MaxPacketSize = DefaultTransportConfig.MaxPacketSize
	}
	if conf.EventQueueInitCap == 0 {
		set = true
		conf.EventQueueInitCap = DefaultTransportConfig.EventQueueInitCap
	}
	return
}

// SessionConfig returns the settings a session over this transport runs
// with.
func (conf *TransportConfig) SessionConfig(name string) cli.Config {
	return cli.Config{
		Name:              name,
		ResponseTimeout:   conf.ResponseTimeout.Duration,
		MaxPacketSize:     conf.MaxPacketSize,
		EventQueueInitCap: conf.EventQueueInitCap,
	}
}
