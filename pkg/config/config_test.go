package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/segtree/pkg/config"
)

const (
	testPort           = 9000
	testMaxCoordinates = 16
	testSampleRatio    = 0.25
	testEnvPort        = 9100
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "segtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultServerReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(config.DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, config.DefaultMaxCoordinates, cfg.Engine.MaxCoordinates)
	assert.Empty(t, cfg.Engine.Coordinates)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSON())
	assert.Equal(t, config.DefaultPrometheus, cfg.Telemetry.Prometheus)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  port: 9000
  host: "0.0.0.0"
  read_timeout: 3s
engine:
  coordinates: [1, 2, 2.5, 3]
  max_coordinates: 16
logging:
  level: debug
  format: json
telemetry:
  otlp_endpoint: "collector:4317"
  otlp_insecure: true
  sample_ratio: 0.25
  prometheus: false
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultServerWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, []float64{1, 2, 2.5, 3}, cfg.Engine.Coordinates)
	assert.Equal(t, testMaxCoordinates, cfg.Engine.MaxCoordinates)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON())
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.InDelta(t, testSampleRatio, cfg.Telemetry.SampleRatio, 0)
	assert.False(t, cfg.Telemetry.Prometheus)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SEGTREE_SERVER_PORT", "9100")
	t.Setenv("SEGTREE_LOGGING_FORMAT", "json")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, testEnvPort, cfg.Server.Port)
	assert.True(t, cfg.Logging.JSON())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "port", content: "server:\n  port: 70000\n", wantErr: config.ErrInvalidPort},
		{name: "timeout", content: "server:\n  idle_timeout: 0s\n", wantErr: config.ErrInvalidTimeout},
		{name: "body", content: "server:\n  max_body_bytes: 0\n", wantErr: config.ErrInvalidBodyLimit},
		{name: "max coordinates", content: "engine:\n  max_coordinates: 1\n", wantErr: config.ErrInvalidMaxCoordinates},
		{
			name:    "too many coordinates",
			content: "engine:\n  max_coordinates: 2\n  coordinates: [1, 2, 3]\n",
			wantErr: config.ErrTooManyCoordinates,
		},
		{name: "infinite coordinate", content: "engine:\n  coordinates: [1, .inf]\n", wantErr: config.ErrInvalidCoordinate},
		{name: "log format", content: "logging:\n  format: xml\n", wantErr: config.ErrInvalidLogFormat},
		{name: "sample ratio", content: "telemetry:\n  sample_ratio: 2\n", wantErr: config.ErrInvalidSampleRatio},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tc.content))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
