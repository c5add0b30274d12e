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
	"fmt"
	"net"
	"strings"
)

// ServiceEndpoint is where a JDWP agent listens.
type ServiceEndpoint struct {
	Addr string
}

func (p *ServiceEndpoint) Validate() (err error) {
	if len(p.Addr) == 0 {
		return fmt.Errorf("ServiceEndpoint.Addr not specified")
	}
	if _, _, err = net.SplitHostPort(p.Addr); err != nil {
		return fmt.Errorf("ServiceEndpoint.Addr %q: %w", p.Addr, err)
	}
	return nil
}

func (p *ServiceEndpoint) GetConnString() string {
	return "tcp:" + p.Addr
}

// SetFromConnString accepts "host:port", ":port", a bare port, an
// optional "tcp:" prefix, and the agent option form "address=host:port".
func (p *ServiceEndpoint) SetFromConnString(connStr string) error {
	str := strings.TrimSpace(connStr)
	if i := strings.Index(str, "address="); i >= 0 {
		str = str[i+len("address="):]
		if j := strings.IndexByte(str, ','); j >= 0 {
			str = str[:j]
		}
	}
	str = strings.TrimPrefix(str, "tcp:")
	if !strings.Contains(str, ":") {
		str = "localhost:" + str
	} else if strings.HasPrefix(str, ":") {
		str = "localhost" + str
	}
	p.Addr = str
	return p.Validate()
}

func (p *ServiceEndpoint) String() string {
	return p.Addr
}
