package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otelCfg "jdwpcheck/pkg/logging/otel/config"
)

func TestDisabledIsNoop(t *testing.T) {
	cfg := &otelCfg.Config{Enabled: false}
	require.NoError(t, Initialize(cfg))
	assert.False(t, IsEnabled())

	RecordRequest("VirtualMachine.IDSizes", StatusSuccess, time.Millisecond)
	RecordConnect("127.0.0.1:8000", StatusError, time.Second)
	RecordEvent("EXCEPTION")
	assert.NoError(t, Shutdown(context.Background()))
}

func TestConfigDefaults(t *testing.T) {
	cfg := &otelCfg.Config{}
	cfg.SetDefaultIfNotDefined()
	assert.Equal(t, "127.0.0.1:4318", cfg.Endpoint())
	assert.Equal(t, uint32(60), cfg.Resolution)
	assert.NotEmpty(t, cfg.HistogramBuckets.Request)

	assert.Error(t, (&otelCfg.Config{Enabled: true}).Validate())
}
