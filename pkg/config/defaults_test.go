package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ringlog/internal/bytesize"
)

func TestApplyDefaults_Empty(t *testing.T) {
	isolate(t)
	var cfg Config
	ApplyDefaults(&cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.Equal(t, "http://localhost:4040", cfg.Telemetry.Profiling.Endpoint)
	assert.NotEmpty(t, cfg.Telemetry.Profiling.ProfileTypes)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, bytesize.MiB, cfg.Log.MaxSize)
	assert.NotEmpty(t, cfg.Log.Path)
	// Booleans keep their zero value.
	assert.False(t, cfg.Log.OverwriteOldMessages)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Logging:   LoggingConfig{Level: "debug", Format: "JSON", Output: "stdout"},
		Telemetry: TelemetryConfig{Endpoint: "otel:4317", SampleRate: 0.1},
		Metrics:   MetricsConfig{Address: "127.0.0.1:1234"},
		Log:       LogConfig{Path: "/a", MaxSize: 100},
	}
	ApplyDefaults(&cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "otel:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 0.1, cfg.Telemetry.SampleRate)
	assert.Equal(t, "127.0.0.1:1234", cfg.Metrics.Address)
	assert.Equal(t, "/a", cfg.Log.Path)
	assert.Equal(t, bytesize.ByteSize(100), cfg.Log.MaxSize)
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	isolate(t)
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.True(t, cfg.Log.OverwriteOldMessages)
}
