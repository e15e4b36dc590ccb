package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
)

// exportOne records a single span carrying attrs through the filter and
// returns the exported attributes by key.
func exportOne(t *testing.T, logger *slog.Logger, attrs ...attribute.KeyValue) map[string]any {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "segtree.add_segment")
	span.SetAttributes(attrs...)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	return spanAttrMap(spans[0])
}

func TestAttributeFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr attribute.KeyValue
		kept bool
	}{
		{"segment bound", attribute.Float64("segment.start", 1.5), true},
		{"segment id", attribute.Int64("segment.id", 100), true},
		{"query bound", attribute.Float64("query.end", 2), true},
		{"union size", attribute.Int("union.members", 3), true},
		{"engine size", attribute.Int("engine.coordinates", 5), true},
		{"http", attribute.String("http.method", "GET"), true},
		{"mcp tool", attribute.String("mcp.tool", "segtree_union"), true},
		{"bare error", attribute.Bool("error", true), true},
		{"new product key", attribute.String("segtree.new_attr", "val"), true},
		{"user namespace", attribute.String("user.id", "12345"), false},
		{"email", attribute.String("email", "bob@example.com"), false},
		{"request body", attribute.String("request.body", `{"start":1}`), false},
		{"response body", attribute.String("response.body", `{"length":2}`), false},
		{"unknown namespace", attribute.String("tenant.name", "acme"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			attrs := exportOne(t, nil, tc.attr)

			if tc.kept {
				assert.Equal(t, tc.attr.Value.AsInterface(), attrs[string(tc.attr.Key)])
			} else {
				assert.NotContains(t, attrs, string(tc.attr.Key))
			}
		})
	}
}

func TestAttributeFilter_KeepsAllowedAlongsideBlocked(t *testing.T) {
	t.Parallel()

	attrs := exportOne(t, nil,
		attribute.String("user.email", "alice@example.com"),
		attribute.Float64("segment.end", 3),
	)

	assert.Equal(t, map[string]any{"segment.end": 3.0}, attrs)
}

func TestAttributeFilter_WarnsWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	exportOne(t, logger, attribute.String("user.secret", "val"))

	assert.Contains(t, buf.String(), "user.secret")
	assert.Contains(t, buf.String(), "blocked")
	assert.Contains(t, buf.String(), "sensitive=true")
}

// spanAttrMap converts a span's attributes into a map for easy assertion.
func spanAttrMap(s tracetest.SpanStub) map[string]any {
	m := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		m[string(a.Key)] = a.Value.AsInterface()
	}

	return m
}
