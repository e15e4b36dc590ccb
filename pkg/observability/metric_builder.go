package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// instrument names one OTel instrument. Bounds apply to histograms only.
type instrument struct {
	name   string
	desc   string
	unit   string
	bounds []float64
}

// metricBuilder creates instruments from a catalog and keeps the first
// creation error, so a constructor checks once after building all of them.
// Observable gauges are collected for a single callback registration.
type metricBuilder struct {
	meter       metric.Meter
	err         error
	observables []metric.Observable
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(in instrument) metric.Int64Counter {
	c, err := b.meter.Int64Counter(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))

	return keep(b, in, c, err)
}

func (b *metricBuilder) upDownCounter(in instrument) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))

	return keep(b, in, c, err)
}

func (b *metricBuilder) histogram(in instrument) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(in.desc), metric.WithUnit(in.unit)}
	if len(in.bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(in.bounds...))
	}

	h, err := b.meter.Float64Histogram(in.name, opts...)

	return keep(b, in, h, err)
}

func (b *metricBuilder) gauge(in instrument) metric.Int64ObservableGauge {
	g, err := b.meter.Int64ObservableGauge(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	if err == nil {
		b.observables = append(b.observables, g)
	}

	return keep(b, in, g, err)
}

func (b *metricBuilder) floatGauge(in instrument) metric.Float64ObservableGauge {
	g, err := b.meter.Float64ObservableGauge(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	if err == nil {
		b.observables = append(b.observables, g)
	}

	return keep(b, in, g, err)
}

func keep[T any](b *metricBuilder, in instrument, inst T, err error) T {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", in.name, err)
	}

	return inst
}
