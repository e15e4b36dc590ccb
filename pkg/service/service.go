// Package service shares one interval-coverage engine between the HTTP, MCP
// and CLI surfaces. It serialises access, traces every operation and feeds
// the engine metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/segtree/pkg/observability"
)

// spanPrefix is the prefix for engine operation span names.
const spanPrefix = "segtree."

// Sentinel errors.
var (
	// ErrNoEngine indicates no coordinate set has been loaded yet.
	ErrNoEngine = errors.New("engine not initialised")
	// ErrTooManyCoordinates indicates a coordinate set above the configured limit.
	ErrTooManyCoordinates = errors.New("too many coordinates")
)

// Deps holds injectable dependencies. Zero-value fields use no-op defaults.
type Deps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Tracer is an optional OTel tracer. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics is an optional engine metrics recorder. Nil disables metrics.
	Metrics *observability.EngineMetrics

	// MaxCoordinates bounds Reset. Zero means unlimited.
	MaxCoordinates int
}

// Summary is the state reported by Stats.
type Summary struct {
	// Root covers the whole real line, including the unbounded outer regions.
	Root segtree.Stats `json:"root" yaml:"root"`
	// Span is restricted to the coordinate span.
	Span        segtree.Stats `json:"span"        yaml:"span"`
	Segments    int           `json:"segments"    yaml:"segments"`
	Coordinates int           `json:"coordinates" yaml:"coordinates"`
	Elementary  int           `json:"elementary"  yaml:"elementary"`
	Convention  string        `json:"convention"  yaml:"convention"`
}

// PointCount is the result of a point lookup.
type PointCount struct {
	Point     float64 `json:"point"     yaml:"point"`
	Contained bool    `json:"contained" yaml:"contained"`
	Count     int64   `json:"count"     yaml:"count"`
}

// Service guards a single engine. Engine reads push lazy deltas down the
// tree, so every operation takes the exclusive lock.
type Service struct {
	mu     sync.Mutex
	engine *segtree.Engine

	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *observability.EngineMetrics
	maxCoordinates int
}

// New creates a service without an engine. Call Reset before mutating.
func New(deps Deps) *Service {
	svc := &Service{
		logger:         deps.Logger,
		tracer:         deps.Tracer,
		metrics:        deps.Metrics,
		maxCoordinates: deps.MaxCoordinates,
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	if svc.tracer == nil {
		svc.tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	return svc
}

// Reset replaces the engine with a fresh one over coords and returns the
// number of distinct coordinates it kept. All recorded segments are discarded.
func (s *Service) Reset(ctx context.Context, coords []float64) (int, error) {
	ctx, span := s.start(ctx, "reset", attribute.Int("engine.coordinates", len(coords)))
	defer span.End()

	if s.maxCoordinates > 0 && len(coords) > s.maxCoordinates {
		err := fmt.Errorf("%w: %d > %d", ErrTooManyCoordinates, len(coords), s.maxCoordinates)

		return 0, fail(span, err)
	}

	engine, err := segtree.New(coords)
	if err != nil {
		return 0, fail(span, err)
	}

	kept := len(engine.Coordinates())

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "engine reset",
		slog.Int("coordinates", kept),
		slog.Int("duplicates", len(coords)-kept),
		slog.String("convention", segtree.Convention.String()))

	return kept, nil
}

// AddSegment records a segment. See [segtree.Engine.AddSegment].
func (s *Service) AddSegment(ctx context.Context, iv segtree.Interval, id segtree.SegmentID) error {
	ctx, span := s.start(ctx, "add_segment", segmentAttrs(iv, id)...)
	defer span.End()

	err := s.withEngine(func(e *segtree.Engine) error {
		return e.AddSegment(iv, id)
	})

	s.metrics.RecordSegment(ctx, observability.ActionAdd, err)

	if err != nil {
		s.logger.DebugContext(ctx, "add segment rejected", slog.String("segment", iv.String()),
			slog.Int64("id", int64(id)), slog.Any("error", err))

		return fail(span, err)
	}

	return nil
}

// RemoveSegment reverses an earlier AddSegment. See [segtree.Engine.RemoveSegment].
func (s *Service) RemoveSegment(ctx context.Context, iv segtree.Interval, id segtree.SegmentID) error {
	ctx, span := s.start(ctx, "remove_segment", segmentAttrs(iv, id)...)
	defer span.End()

	err := s.withEngine(func(e *segtree.Engine) error {
		return e.RemoveSegment(iv, id)
	})

	s.metrics.RecordSegment(ctx, observability.ActionRemove, err)

	if err != nil {
		return fail(span, err)
	}

	return nil
}

// Union returns the covered parts of iv.
func (s *Service) Union(ctx context.Context, iv segtree.Interval) (*segtree.IntervalSet, error) {
	ctx, span := s.start(ctx, "get_union",
		attribute.Float64("query.start", iv.Start), attribute.Float64("query.end", iv.End))
	defer span.End()

	var set *segtree.IntervalSet

	err := s.withEngine(func(e *segtree.Engine) error {
		var err error

		set, err = e.GetUnion(iv)

		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Int("union.members", set.Len()))
	s.metrics.RecordUnion(ctx, set.Len())

	return set, nil
}

// Stats returns the root and span aggregates.
func (s *Service) Stats(ctx context.Context) (Summary, error) {
	ctx, span := s.start(ctx, "root_stats")
	defer span.End()

	var summary Summary

	err := s.withEngine(func(e *segtree.Engine) error {
		summary = Summary{
			Root:        e.RootStats(),
			Span:        e.SpanStats(),
			Segments:    e.SegmentCount(),
			Coordinates: len(e.Coordinates()),
			Elementary:  len(e.Coordinates()) - 1,
			Convention:  segtree.Convention.String(),
		}

		return nil
	})
	if err != nil {
		return Summary{}, fail(span, err)
	}

	s.metrics.RecordQuery(ctx, "stats")

	return summary, nil
}

// Contains reports whether p is covered and its overlap count.
func (s *Service) Contains(ctx context.Context, p float64) (PointCount, error) {
	ctx, span := s.start(ctx, "contains", attribute.Float64("query.point", p))
	defer span.End()

	result := PointCount{Point: p}

	err := s.withEngine(func(e *segtree.Engine) error {
		result.Count = e.CountAt(p)
		result.Contained = result.Count > 0

		return nil
	})
	if err != nil {
		return PointCount{}, fail(span, err)
	}

	s.metrics.RecordQuery(ctx, "contains")

	return result, nil
}

// Profile returns the overlap count of every elementary interval.
func (s *Service) Profile(ctx context.Context) ([]segtree.LeafCount, error) {
	ctx, span := s.start(ctx, "profile")
	defer span.End()

	var profile []segtree.LeafCount

	err := s.withEngine(func(e *segtree.Engine) error {
		profile = e.Profile()

		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.RecordQuery(ctx, "profile")

	return profile, nil
}

// Segments returns the recorded segments overlapping iv.
func (s *Service) Segments(ctx context.Context, iv segtree.Interval) ([]segtree.Segment, error) {
	ctx, span := s.start(ctx, "segments",
		attribute.Float64("query.start", iv.Start), attribute.Float64("query.end", iv.End))
	defer span.End()

	var segments []segtree.Segment

	err := s.withEngine(func(e *segtree.Engine) error {
		segments = e.Segments(iv)

		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.RecordQuery(ctx, "segments")

	return segments, nil
}

// Snapshot samples the engine for the observable gauges. It returns the
// zero snapshot before the first Reset.
func (s *Service) Snapshot() observability.EngineSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return observability.EngineSnapshot{}
	}

	stats := s.engine.SpanStats()

	return observability.EngineSnapshot{
		Segments:      int64(s.engine.SegmentCount()),
		CoveredLength: stats.Length,
		MaxOverlap:    stats.MaxOvp,
		Elementary:    int64(len(s.engine.Coordinates()) - 1),
	}
}

func (s *Service) withEngine(fn func(e *segtree.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return ErrNoEngine
	}

	return fn(s.engine)
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, spanPrefix+op, trace.WithAttributes(attrs...))
}

func segmentAttrs(iv segtree.Interval, id segtree.SegmentID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("segment.start", iv.Start),
		attribute.Float64("segment.end", iv.End),
		attribute.Int64("segment.id", int64(id)),
	}
}

// fail marks span as failed and returns err unchanged.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
