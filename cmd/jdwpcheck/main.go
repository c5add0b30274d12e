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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/logging/otel"
)

const (
	exitPassed = 0
	exitUsage  = 1
	exitFailed = 2
)

var errTestFailed = errors.New("TEST FAILED")

type commonOptions struct {
	cfgFile  string
	logLevel string
	attach   string
	verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &commonOptions{}
	rootCmd := &cobra.Command{
		Use:           "jdwpcheck",
		Short:         "Runs JDWP conformance checks against a debug target",
		Long:          `jdwpcheck attaches to a JDWP agent listening on a socket and checks how the target reports debug events.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "TOML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "error, warning, info, debug or verbose")
	flags.StringVarP(&opts.attach, "attach", "a", "", "address of the JDWP agent, host:port")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print every step to the console")

	rootCmd.AddCommand(
		newExceptionCommand(opts),
		newIDSizesCommand(opts),
		newVersionCommand(),
	)
	return rootCmd
}

// setup loads the configuration, applies the common flags and starts
// logging and metrics. The returned function flushes both.
func setup(cmd *cobra.Command, opts *commonOptions) (*Config, func(), error) {
	cfg, err := loadConfig(opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if cmd.Flags().Changed("attach") {
		if err = cfg.Target.SetFromConnString(opts.attach); err != nil {
			return nil, nil, err
		}
	}
	if err = cfg.Target.Validate(); err != nil {
		return nil, nil, err
	}
	glog.InitLogging(cfg.LogLevel, cmd.Root().Name())
	glog.Debugf("config:\n%s", cfg)

	if err = otel.Initialize(&cfg.Otel); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.Shutdown(ctx); err != nil {
			glog.Warningf("otel shutdown: %s", err)
		}
		glog.Flush()
	}
	return cfg, cleanup, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
		os.Exit(exitPassed)
	case errors.Is(err, errTestFailed):
		os.Exit(exitFailed)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
}
