// Package commands implements the segtree CLI subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
	"github.com/Sumatoshi-tech/segtree/pkg/version"
)

// envOTLPInsecure mirrors the exporter setting of the same name.
const envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

// initEnvObservability configures telemetry from the standard OTel
// environment variables. Used by the modes that take no config file.
func initEnvObservability(mode observability.AppMode, debug, logJSON bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv(envOTLPInsecure) == "true"
	cfg.Mode = mode
	cfg.LogJSON = logJSON
	cfg.LogLevel = slog.LevelWarn

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}

// newService wires a service and its engine metrics to the given providers.
func newService(providers observability.Providers, maxCoordinates int) (*service.Service, *observability.EngineMetrics, error) {
	engineMetrics, err := observability.NewEngineMetrics(providers.Meter)
	if err != nil {
		return nil, nil, err
	}

	svc := service.New(service.Deps{
		Logger:         providers.Logger,
		Tracer:         providers.Tracer,
		Metrics:        engineMetrics,
		MaxCoordinates: maxCoordinates,
	})

	return svc, engineMetrics, nil
}

// shutdown flushes telemetry, logging any failure.
func shutdown(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
