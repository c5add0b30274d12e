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

package otel

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"
	"go.opentelemetry.io/otel/metric/unit"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"jdwpcheck/pkg/logging/glog"
	otelCfg "jdwpcheck/pkg/logging/otel/config"
)

const (
	MetricPrefix = "jdwpcheck."
	MeterName    = "jdwpcheck-meter"
)

const (
	StatusSuccess string = "SUCCESS"
	StatusError   string = "ERROR"
	StatusTimeout string = "TIMEOUT"
	StatusFatal   string = "FATAL"
)

var (
	requestHistogramOnce sync.Once
	connectHistogramOnce sync.Once
	eventCounterOnce     sync.Once

	requestHistogram syncint64.Histogram
	connectHistogram syncint64.Histogram
	eventCounter     syncint64.Counter

	mtx           sync.Mutex
	meterProvider *metric.MeterProvider
)

// Initialize sets up the OTLP meter provider when c.Enabled. Recording
// functions are no-ops until then.
func Initialize(c *otelCfg.Config) error {
	if c == nil {
		return fmt.Errorf("otel: nil config")
	}
	if err := c.Validate(); err != nil {
		glog.Error(err)
		return err
	}
	c.Dump()
	if !c.Enabled {
		return nil
	}
	return InitMetricProvider(c)
}

func InitMetricProvider(c *otelCfg.Config) error {
	mtx.Lock()
	defer mtx.Unlock()
	if meterProvider != nil {
		glog.Debugf("meter provider already initialized")
		return nil
	}
	ctx := context.Background()

	requestView := metric.NewView(
		metric.Instrument{
			Name:  MetricPrefix + "request",
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: aggregation.ExplicitBucketHistogram{Boundaries: c.HistogramBuckets.Request},
		})
	connectView := metric.NewView(
		metric.Instrument{
			Name:  MetricPrefix + "attach",
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: aggregation.ExplicitBucketHistogram{Boundaries: c.HistogramBuckets.Connect},
		})

	exp, err := NewHTTPExporter(ctx, c)
	if err != nil {
		return err
	}
	reader := metric.NewPeriodicReader(exp, metric.WithInterval(time.Duration(c.Resolution)*time.Second))
	meterProvider = NewMeterProvider(reader, getResourceInfo(c), requestView, connectView)
	global.SetMeterProvider(meterProvider)
	return nil
}

func NewMeterProvider(reader metric.Reader, res *resource.Resource, views ...metric.View) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
		metric.WithView(views...),
	)
}

func NewHTTPExporter(ctx context.Context, c *otelCfg.Config) (metric.Exporter, error) {
	deltaTemporalitySelector := func(metric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(c.Endpoint()),
		otlpmetrichttp.WithURLPath(c.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithCompression(otlpmetrichttp.NoCompression),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  60 * time.Second,
		}),
	}
	if !c.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// Shutdown flushes pending measurements. Safe to call when disabled.
func Shutdown(ctx context.Context) error {
	mtx.Lock()
	defer mtx.Unlock()
	if meterProvider == nil {
		return nil
	}
	err := meterProvider.Shutdown(ctx)
	meterProvider = nil
	return err
}

func IsEnabled() bool {
	mtx.Lock()
	defer mtx.Unlock()
	return meterProvider != nil
}

func getRequestHistogram() (syncint64.Histogram, error) {
	var err error
	requestHistogramOnce.Do(func() {
		requestHistogram, err = global.Meter(MeterName).SyncInt64().Histogram(
			MetricPrefix+"request",
			instrument.WithDescription("Round trip latency of debugger commands"),
			instrument.WithUnit(unit.Milliseconds),
		)
	})
	return requestHistogram, err
}

func getConnectHistogram() (syncint64.Histogram, error) {
	var err error
	connectHistogramOnce.Do(func() {
		connectHistogram, err = global.Meter(MeterName).SyncInt64().Histogram(
			MetricPrefix+"attach",
			instrument.WithDescription("Time to attach and complete the handshake"),
			instrument.WithUnit(unit.Milliseconds),
		)
	})
	return connectHistogram, err
}

func getEventCounter() (syncint64.Counter, error) {
	var err error
	eventCounterOnce.Do(func() {
		eventCounter, err = global.Meter(MeterName).SyncInt64().Counter(
			MetricPrefix+"event",
			instrument.WithDescription("Events received from the target VM"),
		)
	})
	return eventCounter, err
}

// RecordRequest records the latency of one command, labelled by its name
// and outcome.
func RecordRequest(cmd string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	if h, err := getRequestHistogram(); err == nil && h != nil {
		h.Record(context.Background(), latency.Milliseconds(),
			attribute.String("command", cmd),
			attribute.String("status", status))
	}
}

func RecordConnect(endpoint string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	if h, err := getConnectHistogram(); err == nil && h != nil {
		h.Record(context.Background(), latency.Milliseconds(),
			attribute.String("endpoint", endpoint),
			attribute.String("status", status))
	}
}

func RecordEvent(kind string) {
	if !IsEnabled() {
		return
	}
	if c, err := getEventCounter(); err == nil && c != nil {
		c.Add(context.Background(), 1, attribute.String("kind", kind))
	}
}

func getResourceInfo(c *otelCfg.Config) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(semconv.SchemaURL,
		semconv.HostNameKey.String(hostname),
		semconv.ServiceNameKey.String(c.Poolname),
		attribute.String("environment", c.Environment),
		attribute.String("application", c.Poolname),
	)
}
