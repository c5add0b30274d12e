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

package main

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"jdwpcheck/pkg/debugee"
	"jdwpcheck/pkg/io"
	otelCfg "jdwpcheck/pkg/logging/otel/config"
	"jdwpcheck/pkg/scenario"
)

type Config struct {
	LogLevel  string
	Target    io.ServiceEndpoint
	Transport io.TransportConfig
	Debugee   debugee.Config
	Scenario  scenario.ExceptionConfig
	Otel      otelCfg.Config
}

var defaultConfig = Config{
	LogLevel:  "info",
	Target:    io.ServiceEndpoint{Addr: "localhost:8000"},
	Transport: io.DefaultTransportConfig,
	Debugee:   debugee.DefaultConfig,
	Scenario:  scenario.DefaultExceptionConfig,
}

// loadConfig returns the defaults overlaid with file, if given.
func loadConfig(file string) (*Config, error) {
	cfg := defaultConfig
	if len(file) != 0 {
		if _, err := toml.DecodeFile(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s. %w", file, err)
		}
	}
	cfg.Transport.SetDefaultIfNotDefined()
	cfg.Debugee.SetDefaultIfNotDefined()
	cfg.Scenario.SetDefaultIfNotDefined()
	return &cfg, nil
}

func (c *Config) String() string {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(c); err != nil {
		return err.Error()
	}
	return buf.String()
}
