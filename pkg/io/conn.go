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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/logging/otel"
	"jdwpcheck/pkg/proto"
)

// Connect dials endpoint once.
func Connect(endpoint *ServiceEndpoint, connectTimeout time.Duration) (conn net.Conn, err error) {
	timeStart := time.Now()

	if conn, err = net.DialTimeout("tcp", endpoint.Addr, connectTimeout); err == nil {
		if glog.LOG_DEBUG {
			glog.DebugDepth(1, fmt.Sprintf("connected to %s", endpoint.GetConnString()))
		}
	} else {
		glog.DebugDepth(1, fmt.Sprintf("fail to connect %s error: %s", endpoint.GetConnString(), err.Error()))
	}
	if otel.IsEnabled() {
		status := otel.StatusSuccess
		if err != nil {
			status = otel.StatusError
		}
		otel.RecordConnect(endpoint.Addr, status, time.Since(timeStart))
	}
	return
}

// Handshake exchanges the JDWP handshake literal on rw. The deadline, when
// rw supports one, only covers the exchange.
func Handshake(rw io.ReadWriter, timeout time.Duration) error {
	type deadliner interface {
		SetDeadline(t time.Time) error
	}
	if d, ok := rw.(deadliner); ok && timeout > 0 {
		if err := d.SetDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		defer d.SetDeadline(time.Time{})
	}
	if _, err := rw.Write([]byte(proto.Handshake)); err != nil {
		return err
	}
	buf := make([]byte, len(proto.Handshake))
	n, err := io.ReadFull(rw, buf)
	if err != nil {
		if n == 0 {
			return err
		}
		return fmt.Errorf("%q: %w", buf[:n], proto.ErrBadHandshake)
	}
	if !bytes.Equal(buf, []byte(proto.Handshake)) {
		return fmt.Errorf("%q: %w", buf, proto.ErrBadHandshake)
	}
	return nil
}

func handshakeError(err error, timeout time.Duration) error {
	var nerr net.Error
	switch {
	case errors.Is(err, proto.ErrBadHandshake):
		return &cli.ProtocolViolationError{Reason: "handshake", Err: err}
	case errors.As(err, &nerr) && nerr.Timeout():
		return &cli.TimeoutError{Op: "handshake", After: timeout}
	}
	return err
}

// Attach connects to an agent that is already listening and completes the
// handshake. Refused or dropped attempts are retried with exponential
// backoff until cfg.AttachTimeout or ctx ends; a wrong handshake reply is
// not retried.
func Attach(ctx context.Context, endpoint *ServiceEndpoint, cfg *TransportConfig) (net.Conn, error) {
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaultIfNotDefined()

	ctx, cancel := context.WithTimeout(ctx, cfg.AttachTimeout.Duration)
	defer cancel()

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Duration(cfg.ReconnectIntervalBase)*time.Millisecond),
		backoff.WithMaxInterval(time.Duration(cfg.ReconnectIntervalMax)*time.Millisecond),
		backoff.WithMaxElapsedTime(0),
	)

	timeStart := time.Now()
	attempts := 0
	var lastAttemptErr error
	conn, err := backoff.RetryNotifyWithData(
		func() (net.Conn, error) {
			attempts++
			conn, err := Connect(endpoint, cfg.ConnectTimeout.Duration)
			if err != nil {
				return nil, err
			}
			if err = Handshake(conn, cfg.HandshakeTimeout.Duration); err != nil {
				conn.Close()
				err = handshakeError(err, cfg.HandshakeTimeout.Duration)
				if !cli.IsRetryable(err) {
					return nil, backoff.Permanent(err)
				}
				return nil, err
			}
			return conn, nil
		},
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			lastAttemptErr = err
			glog.Debugf("attach %s attempt %d failed, retry in %v: %s", endpoint, attempts, d, err)
		},
	)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = errors.Join(lastAttemptErr, err)
		}
		glog.Errorf("fail to attach %s after %d attempt(s): %s", endpoint.GetConnString(), attempts, err)
		return nil, err
	}
	glog.Infof("attached to %s in %v (%d attempt(s))", endpoint.GetConnString(), time.Since(timeStart).Round(time.Millisecond), attempts)
	return conn, nil
}
