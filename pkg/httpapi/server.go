// Package httpapi serves the interval-coverage engine over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

// defaultMaxBodyBytes caps request bodies when Deps.MaxBodyBytes is zero.
const defaultMaxBodyBytes = 1 << 20

// shutdownGrace bounds graceful shutdown after the serve context ends.
const shutdownGrace = 10 * time.Second

// Deps holds the server dependencies. Service is required.
type Deps struct {
	Service *service.Service

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Tracer is an optional OTel tracer for per-request spans.
	Tracer trace.Tracer

	// RED is an optional request metrics recorder.
	RED *observability.REDMetrics

	// Metrics serves /metrics when non-nil.
	Metrics http.Handler

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
}

// Timeouts configures the underlying [http.Server].
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

type api struct {
	svc     *service.Service
	logger  *slog.Logger
	maxBody int64
}

// NewHandler returns the routed API wrapped in tracing and RED middleware.
func NewHandler(deps Deps) http.Handler {
	a := &api{
		svc:     deps.Service,
		logger:  deps.Logger,
		maxBody: deps.MaxBodyBytes,
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	if a.maxBody <= 0 {
		a.maxBody = defaultMaxBodyBytes
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/engine", a.handleReset)
	mux.HandleFunc("POST /v1/segments", a.handleAddSegment)
	mux.HandleFunc("DELETE /v1/segments", a.handleRemoveSegment)
	mux.HandleFunc("GET /v1/segments", a.handleSegments)
	mux.HandleFunc("GET /v1/union", a.handleUnion)
	mux.HandleFunc("GET /v1/stats", a.handleStats)
	mux.HandleFunc("GET /v1/contains", a.handleContains)
	mux.HandleFunc("GET /v1/profile", a.handleProfile)

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(a.engineReady))

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return observability.HTTPMiddleware(tracer, deps.RED, mux)
}

// Serve runs handler on listener until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, timeouts Timeouts) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
		IdleTimeout:  timeouts.Idle,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

func (a *api) engineReady(ctx context.Context) error {
	_, err := a.svc.Stats(ctx)

	return err
}
