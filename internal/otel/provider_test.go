package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutputs(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "svc", BatchTimeout: time.Second})
	assert.Error(t, err)
}

func TestNew_EnabledWithWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "persistent-rotation",
		BatchTimeout: time.Second,
	}, "0.1.0", &buf))
	require.NoError(t, err)

	assert.True(t, p.Enabled())
	require.NotNil(t, p.LoggerProvider())
	assert.NoError(t, p.LoggerProvider().ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "svc",
		BatchTimeout: 3 * time.Second,
		Endpoint:     "collector:4318",
		Insecure:     true,
	}, "0.1.0", &buf)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, 3*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "0.1.0", cfg.ServiceVersion)
	assert.Same(t, &buf, cfg.LogWriter)
}
