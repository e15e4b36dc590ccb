package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/segtree/pkg/config"
	"github.com/Sumatoshi-tech/segtree/pkg/httpapi"
	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/version"
)

// NewServeCommand creates the HTTP server command.
func NewServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP/JSON",
		Long: `Start the HTTP/JSON API backed by one shared engine.

Configuration is read from --config, ./segtree.yaml, ./config/segtree.yaml or
/etc/segtree/segtree.yaml and can be overridden with SEGTREE_* environment
variables (e.g. SEGTREE_SERVER_PORT=9090).

Endpoints:
  POST   /v1/engine     load a coordinate set
  POST   /v1/segments   add a segment
  DELETE /v1/segments   remove a segment (?start=&end=&id=)
  GET    /v1/segments   list segments overlapping ?start=&end=
  GET    /v1/union      covered parts of ?start=&end=
  GET    /v1/stats      covered length and overlap extremes
  GET    /v1/contains   overlap count at ?point=
  GET    /v1/profile    overlap count per elementary interval
  GET    /healthz, /readyz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the config file")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	providers, err := initServeObservability(cfg)
	if err != nil {
		return err
	}

	defer shutdown(providers)

	svc, engineMetrics, err := newService(providers, cfg.Engine.MaxCoordinates)
	if err != nil {
		return err
	}

	if len(cfg.Engine.Coordinates) > 0 {
		_, err = svc.Reset(ctx, cfg.Engine.Coordinates)
		if err != nil {
			return fmt.Errorf("seed engine: %w", err)
		}
	}

	unregister, err := engineMetrics.ObserveEngine(svc.Snapshot)
	if err != nil {
		return err
	}

	defer func() { _ = unregister() }()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Service:      svc,
		Logger:       providers.Logger,
		Tracer:       providers.Tracer,
		RED:          red,
		Metrics:      providers.MetricsHandler,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr(), err)
	}

	providers.Logger.InfoContext(ctx, "serving",
		slog.String("addr", listener.Addr().String()),
		slog.String("version", version.Version),
		slog.Bool("metrics", providers.MetricsHandler != nil))

	return httpapi.Serve(ctx, listener, handler, httpapi.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	})
}

func initServeObservability(cfg *config.Config) (observability.Providers, error) {
	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = observability.ModeServe
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.Prometheus = cfg.Telemetry.Prometheus
	obsCfg.DebugTrace = cfg.Telemetry.DebugTrace
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.ShutdownTimeoutSec = cfg.Telemetry.ShutdownTimeoutSec
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON()

	return observability.Init(obsCfg)
}
