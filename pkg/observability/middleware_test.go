package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/segtree/pkg/httpapi"
	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

func newTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp, exporter
}

func serve(handler http.Handler, method, target, body string) int {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))

	return rec.Code
}

// requestCount returns the segtree.requests.total data point for op and
// status, or zero when none was recorded.
func requestCount(t *testing.T, rm metricdata.ResourceMetrics, op, status string) int64 {
	t.Helper()

	m := findMetric(rm, "segtree.requests.total")
	if m == nil {
		return 0
	}

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	want := attribute.NewSet(attribute.String("op", op), attribute.String("status", status))

	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}

	return 0
}

func spanStatusCode(span tracetest.SpanStub) int64 {
	for _, attr := range span.Attributes {
		if string(attr.Key) == "http.response.status_code" {
			return attr.Value.AsInt64()
		}
	}

	return 0
}

func TestHTTPMiddleware_EngineRoutes(t *testing.T) {
	t.Parallel()

	tp, exporter := newTracer(t)
	red, reader := setupTestMeter(t)

	handler := httpapi.NewHandler(httpapi.Deps{
		Service: service.New(service.Deps{}),
		Tracer:  tp.Tracer("test"),
		RED:     red,
	})

	assert.Equal(t, http.StatusConflict, serve(handler, http.MethodGet, "/v1/stats", ""))
	assert.Equal(t, http.StatusCreated, serve(handler, http.MethodPost, "/v1/engine", `{"coordinates":[0,1,2]}`))
	assert.Equal(t, http.StatusCreated, serve(handler, http.MethodPost, "/v1/segments", `{"start":0,"end":2,"id":1}`))
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/v1/union", ""))

	spans := exporter.GetSpans()
	require.Len(t, spans, 4)

	names := make([]string, 0, len(spans))
	codesSeen := make([]int64, 0, len(spans))

	for _, span := range spans {
		names = append(names, span.Name)
		codesSeen = append(codesSeen, spanStatusCode(span))

		assert.NotEqual(t, codes.Error, span.Status.Code, span.Name)
	}

	assert.Equal(t, []string{"GET /v1/stats", "POST /v1/engine", "POST /v1/segments", "GET /v1/union"}, names)
	assert.Equal(t, []int64{409, 201, 201, 200}, codesSeen)

	rm := collectMetrics(t, reader)

	// Client errors are not server errors.
	assert.Equal(t, int64(1), requestCount(t, rm, "GET /v1/stats", observability.StatusOK))
	assert.Equal(t, int64(1), requestCount(t, rm, "POST /v1/engine", observability.StatusOK))
	assert.Equal(t, int64(1), requestCount(t, rm, "POST /v1/segments", observability.StatusOK))
	assert.Equal(t, int64(1), requestCount(t, rm, "GET /v1/union", observability.StatusOK))
	assert.Zero(t, requestCount(t, rm, "GET /v1/stats", observability.StatusError))

	inflight := findMetric(rm, "segtree.inflight.requests")
	require.NotNil(t, inflight)
	assert.Zero(t, sumInt64(t, inflight))
}

func TestHTTPMiddleware_ServiceSpansNestUnderRequest(t *testing.T) {
	t.Parallel()

	tp, exporter := newTracer(t)
	tracer := tp.Tracer("test")

	handler := httpapi.NewHandler(httpapi.Deps{
		Service: service.New(service.Deps{Tracer: tracer}),
		Tracer:  tracer,
	})

	require.Equal(t, http.StatusCreated, serve(handler, http.MethodPost, "/v1/engine", `{"coordinates":[0,4]}`))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	// The service span ends first.
	reset, request := spans[0], spans[1]

	assert.Equal(t, "segtree.reset", reset.Name)
	assert.Equal(t, "POST /v1/engine", request.Name)
	assert.Equal(t, request.SpanContext.TraceID(), reset.SpanContext.TraceID())
	assert.Equal(t, request.SpanContext.SpanID(), reset.Parent.SpanID())
}

func TestHTTPMiddleware_ServerErrorRecorded(t *testing.T) {
	t.Parallel()

	tp, exporter := newTracer(t)
	red, reader := setupTestMeter(t)

	failing := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	})

	mw := observability.HTTPMiddleware(tp.Tracer("test"), red, failing)
	assert.Equal(t, http.StatusInternalServerError, serve(mw, http.MethodGet, "/v1/union", ""))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, int64(http.StatusInternalServerError), spanStatusCode(spans[0]))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), requestCount(t, rm, "GET /v1/union", observability.StatusError))

	errs := findMetric(rm, "segtree.errors.total")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), sumInt64(t, errs))
}

func TestHTTPMiddleware_ImplicitStatusOK(t *testing.T) {
	t.Parallel()

	tp, exporter := newTracer(t)

	silent := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})

	mw := observability.HTTPMiddleware(tp.Tracer("test"), nil, silent)
	serve(mw, http.MethodDelete, "/v1/segments", "")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, int64(http.StatusOK), spanStatusCode(spans[0]))
}

func TestHTTPMiddleware_ExtractsTraceParent(t *testing.T) {
	t.Parallel()

	tp, exporter := newTracer(t)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	const (
		parentTraceID = "0af7651916cd43dd8448eb211c80319c"
		parentSpanID  = "00f067aa0ba902b7"
	)

	handler := httpapi.NewHandler(httpapi.Deps{
		Service: service.New(service.Deps{}),
		Tracer:  tp.Tracer("test"),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set("Traceparent", "00-"+parentTraceID+"-"+parentSpanID+"-01")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, parentTraceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, parentSpanID, spans[0].Parent.SpanID().String())
}
