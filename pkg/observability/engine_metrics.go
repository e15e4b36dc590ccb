package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSegmentsTotal   = "segtree.engine.segments.total"
	metricQueriesTotal    = "segtree.engine.queries.total"
	metricUnionMembers    = "segtree.engine.union.members"
	metricSegmentsActive  = "segtree.engine.segments.active"
	metricCoveredLength   = "segtree.engine.covered.length"
	metricMaxOverlap      = "segtree.engine.overlap.max"
	metricElementaryCount = "segtree.engine.elementary.intervals"

	attrAction = "action"
	attrQuery  = "query"

	// ActionAdd labels segment additions.
	ActionAdd = "add"
	// ActionRemove labels segment removals.
	ActionRemove = "remove"
)

// unionMemberBuckets bounds the number of disjoint members in a union result.
var unionMemberBuckets = []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000, 5000}

var (
	segmentsTotal = instrument{name: metricSegmentsTotal, desc: "Segment mutations by action and status", unit: "{segment}"}
	queriesTotal  = instrument{name: metricQueriesTotal, desc: "Engine queries by kind", unit: "{query}"}
	unionMembers  = instrument{
		name: metricUnionMembers, desc: "Disjoint members per union result", unit: "{interval}",
		bounds: unionMemberBuckets,
	}
	segmentsActive = instrument{name: metricSegmentsActive, desc: "Recorded segments", unit: "{segment}"}
	coveredLength  = instrument{name: metricCoveredLength, desc: "Covered length of the coordinate span", unit: "1"}
	maxOverlap     = instrument{name: metricMaxOverlap, desc: "Largest overlap count", unit: "{segment}"}
	elementary     = instrument{name: metricElementaryCount, desc: "Elementary intervals in the tree", unit: "{interval}"}
)

// EngineSnapshot is the engine state sampled by the observable gauges.
type EngineSnapshot struct {
	Segments      int64
	CoveredLength float64
	MaxOverlap    int64
	Elementary    int64
}

// EngineMetrics holds OTel instruments for interval-coverage engine activity.
type EngineMetrics struct {
	meter         metric.Meter
	observables   []metric.Observable
	segmentsTotal metric.Int64Counter
	queriesTotal  metric.Int64Counter
	unionMembers  metric.Float64Histogram
	segments      metric.Int64ObservableGauge
	coveredLength metric.Float64ObservableGauge
	maxOverlap    metric.Int64ObservableGauge
	elementary    metric.Int64ObservableGauge
}

// NewEngineMetrics creates engine metric instruments from the given meter.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	b := newMetricBuilder(mt)

	em := &EngineMetrics{
		meter:         mt,
		segmentsTotal: b.counter(segmentsTotal),
		queriesTotal:  b.counter(queriesTotal),
		unionMembers:  b.histogram(unionMembers),
		segments:      b.gauge(segmentsActive),
		coveredLength: b.floatGauge(coveredLength),
		maxOverlap:    b.gauge(maxOverlap),
		elementary:    b.gauge(elementary),
	}

	if b.err != nil {
		return nil, b.err
	}

	em.observables = b.observables

	return em, nil
}

// RecordSegment records one add or remove with its outcome.
// Safe to call on a nil receiver (no-op).
func (em *EngineMetrics) RecordSegment(ctx context.Context, action string, err error) {
	if em == nil {
		return
	}

	em.segmentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrStatus, StatusOf(err)),
	))
}

// RecordQuery records one read of the given kind (union, stats, contains, ...).
func (em *EngineMetrics) RecordQuery(ctx context.Context, kind string) {
	if em == nil {
		return
	}

	em.queriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrQuery, kind)))
}

// RecordUnion records the size of a union result.
func (em *EngineMetrics) RecordUnion(ctx context.Context, members int) {
	if em == nil {
		return
	}

	em.RecordQuery(ctx, "union")
	em.unionMembers.Record(ctx, float64(members))
}

// ObserveEngine registers snapshot as the source of the engine gauges.
// The returned function unregisters the callback.
func (em *EngineMetrics) ObserveEngine(snapshot func() EngineSnapshot) (func() error, error) {
	if em == nil {
		return func() error { return nil }, nil
	}

	reg, err := em.meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		snap := snapshot()

		obs.ObserveInt64(em.segments, snap.Segments)
		obs.ObserveFloat64(em.coveredLength, snap.CoveredLength)
		obs.ObserveInt64(em.maxOverlap, snap.MaxOverlap)
		obs.ObserveInt64(em.elementary, snap.Elementary)

		return nil
	}, em.observables...)
	if err != nil {
		return nil, fmt.Errorf("register engine callback: %w", err)
	}

	return reg.Unregister, nil
}
