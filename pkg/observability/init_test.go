package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

func TestInit_NoExportersRunsServiceOnNoop(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.Nil(t, providers.MetricsHandler)

	em, err := observability.NewEngineMetrics(providers.Meter)
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: em,
	})

	unregister, err := em.ObserveEngine(svc.Snapshot)
	require.NoError(t, err)

	_, err = svc.Reset(context.Background(), []float64{0, 1, 2})
	require.NoError(t, err)

	// No-op spans carry no trace context.
	ctx, span := providers.Tracer.Start(context.Background(), "segtree.union")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	providers.Logger.InfoContext(ctx, "noop logging")

	require.NoError(t, unregister())
	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.SampleRatio = 2

	_, err := observability.Init(cfg)
	require.ErrorIs(t, err, observability.ErrInvalidConfig)
}

func TestInit_ResourceOnTargetInfo(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "staging"
	cfg.Mode = observability.ModeMCP
	cfg.Prometheus = true

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	em, err := observability.NewEngineMetrics(providers.Meter)
	require.NoError(t, err)

	em.RecordSegment(context.Background(), observability.ActionAdd, nil)

	body := scrape(t, providers.MetricsHandler).Body.String()

	assert.Contains(t, body, "segtree_engine_segments_total")
	assert.Contains(t, body, `service_name="segtree"`)
	assert.Contains(t, body, `service_version="1.2.3"`)
	assert.Contains(t, body, `deployment_environment="staging"`)
	assert.Contains(t, body, `app_mode="mcp"`)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "authorization=Bearer abc", map[string]string{"authorization": "Bearer abc"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"skips malformed", "invalid,k=v", map[string]string{"k": "v"}},
		{"only malformed", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestSampler_Selection(t *testing.T) {
	tests := []struct {
		name    string
		sampler string
		arg     string
		debug   bool
		ratio   float64
		sampled bool
	}{
		{name: "default samples roots", sampled: true},
		{name: "config ratio", ratio: 1, sampled: true},
		{name: "env always_on", sampler: "always_on", sampled: true},
		{name: "env always_off", sampler: "always_off"},
		{name: "env ratio one", sampler: "traceidratio", arg: "1.0", sampled: true},
		{name: "env ratio zero", sampler: "traceidratio", arg: "0"},
		{name: "env wins over config ratio", sampler: "always_off", ratio: 1},
		// Root spans have no parent, so the root sampler decides.
		{name: "parent based off", sampler: "parentbased_always_off"},
		{name: "bad ratio falls back to one", sampler: "parentbased_traceidratio", arg: "x", sampled: true},
		{name: "unknown sampler ignored", sampler: "sometimes", sampled: true},
		{name: "debug overrides env", sampler: "always_off", debug: true, sampled: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tc.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tc.arg)

			cfg := observability.DefaultConfig()
			cfg.DebugTrace = tc.debug
			cfg.SampleRatio = tc.ratio

			assert.Equal(t, tc.sampled, observability.RootSampled(cfg))
		})
	}
}
