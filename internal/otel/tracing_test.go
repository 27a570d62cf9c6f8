package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitDisabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "tracing_configured", logs.All()[0].Message)
	assert.Equal(t, false, logs.All()[0].ContextMap()["tracing_enabled"])
}

func TestInitUnsupportedProtocolDegrades(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("tracing_init_failed").Len())
}

func TestSamplerRatio(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	assert.Equal(t, 0.25, samplerRatio())

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "abc")
	assert.Equal(t, 1.0, samplerRatio())

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "5")
	assert.Equal(t, 1.0, samplerRatio())
}

func TestGetSampler(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "always_off")
	assert.Equal(t, "AlwaysOffSampler", getSampler().Description())

	t.Setenv("OTEL_TRACES_SAMPLER", "always_on")
	assert.Equal(t, "AlwaysOnSampler", getSampler().Description())
}
