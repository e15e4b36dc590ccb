// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for every segtree application mode (CLI, MCP, server).
package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// AppMode identifies how the segtree binary was launched. It is recorded as
// the app.mode resource attribute and on every log record.
type AppMode string

const (
	// ModeCLI covers one-shot commands with no long-lived engine.
	ModeCLI AppMode = "cli"
	// ModeRun replays a workload file against a fresh engine.
	ModeRun AppMode = "run"
	// ModeMCP serves the engine as MCP tools over stdio.
	ModeMCP AppMode = "mcp"
	// ModeServe serves the engine over HTTP.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName     = "segtree"
	defaultShutdownTimeout = 5 * time.Second
)

// ErrInvalidConfig is returned by Init for a Config it cannot honour.
var ErrInvalidConfig = errors.New("invalid observability config")

// Valid reports whether m is one of the known modes.
func (m AppMode) Valid() bool {
	switch m {
	case ModeCLI, ModeRun, ModeMCP, ModeServe:
		return true
	default:
		return false
	}
}

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables OTLP
	// export of both traces and metrics.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// Prometheus attaches a scrape reader to the meter provider, exposed
	// through Providers.MetricsHandler. Engine gauges are only collected
	// when some reader is attached.
	Prometheus bool

	// DebugTrace samples every trace and logs span attributes dropped by
	// the attribute filter.
	DebugTrace bool

	// SampleRatio applies when DebugTrace is off and OTEL_TRACES_SAMPLER is
	// unset. Zero samples every root span.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	// ShutdownTimeoutSec bounds the telemetry flush on shutdown. Zero uses
	// the default.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: int(defaultShutdownTimeout / time.Second),
	}
}

// Exporting reports whether any metric reader will be attached.
func (c Config) Exporting() bool {
	return c.OTLPEndpoint != "" || c.Prometheus
}

// Validate checks the fields Init relies on.
func (c Config) Validate() error {
	switch {
	case c.ServiceName == "":
		return fmt.Errorf("%w: empty service name", ErrInvalidConfig)
	case c.Mode != "" && !c.Mode.Valid():
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	case c.SampleRatio < 0 || c.SampleRatio > 1:
		return fmt.Errorf("%w: sample ratio %v outside [0, 1]", ErrInvalidConfig, c.SampleRatio)
	case c.ShutdownTimeoutSec < 0:
		return fmt.Errorf("%w: negative shutdown timeout %d", ErrInvalidConfig, c.ShutdownTimeoutSec)
	}

	return nil
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSec <= 0 {
		return defaultShutdownTimeout
	}

	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}
