package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "segtree.requests.total"
	metricRequestDuration  = "segtree.request.duration.seconds"
	metricErrorsTotal      = "segtree.errors.total"
	metricInflightRequests = "segtree.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK labels a successful request.
	StatusOK = "ok"
	// StatusError labels a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 100µs to 10s. Engine operations are
// logarithmic in the coordinate count; the tail is workload replays.
var durationBucketBoundaries = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10,
}

var (
	requestsTotal   = instrument{name: metricRequestsTotal, desc: "Total number of requests", unit: "{request}"}
	requestDuration = instrument{
		name: metricRequestDuration, desc: "Request duration in seconds", unit: "s",
		bounds: durationBucketBoundaries,
	}
	errorsTotal      = instrument{name: metricErrorsTotal, desc: "Total number of errors", unit: "{error}"}
	inflightRequests = instrument{name: metricInflightRequests, desc: "Number of in-flight requests", unit: "{request}"}
)

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(requestsTotal),
		requestDuration:  b.histogram(requestDuration),
		errorsTotal:      b.counter(errorsTotal),
		inflightRequests: b.upDownCounter(inflightRequests),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
// Safe to call on a nil receiver (no-op).
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// StatusOf returns StatusError when err is non-nil and StatusOK otherwise.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}

	return StatusOK
}
