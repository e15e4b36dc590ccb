// Package segtree provides an interval-coverage engine: a coordinate-compressed
// segment tree with lazy range updates over a fixed set of breakpoints.
//
// Segments are added as half-open intervals [start, end) and raise the
// overlap count of every elementary interval they fully contain. The engine
// answers union queries (the covered parts of a range) and keeps the covered
// length, maximum and minimum overlap count at the root for O(1) reads.
//
// An Engine is not safe for concurrent use.
package segtree

import (
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/interval"
)

// SegmentID is a caller-supplied segment tag. It does not affect aggregates.
type SegmentID int64

// Segment is a recorded segment and its identifier.
type Segment struct {
	Interval `yaml:",inline"`

	ID SegmentID `json:"id" yaml:"id"`
}

// Engine maintains overlap counts over the elementary intervals of a fixed
// coordinate set.
type Engine struct {
	coords   *CoordinateIndex
	tree     *tree
	segments *interval.Tree[float64, SegmentID]
}

// New builds an engine over coords. At least two distinct finite coordinates
// are required.
func New(coords []float64) (*Engine, error) {
	index, err := NewCoordinateIndex(coords)
	if err != nil {
		return nil, err
	}

	return &Engine{
		coords:   index,
		tree:     newTree(index),
		segments: interval.New[float64, SegmentID](),
	}, nil
}

// AddSegment raises the overlap count of every elementary interval fully
// inside iv by one. Intervals partially outside the coordinate span are
// clamped; intervals entirely outside fail with ErrOutOfDomain.
func (e *Engine) AddSegment(iv Interval, id SegmentID) error {
	lo, hi, ok, err := e.segmentLeaves(iv)
	if err != nil {
		return err
	}

	if ok {
		if err := e.tree.RangeUpdate(lo, hi, 1); err != nil {
			return err
		}
	}

	e.segments.Insert(iv.Start, iv.End, id)

	return nil
}

// RemoveSegment reverses an earlier AddSegment with the same interval and id.
func (e *Engine) RemoveSegment(iv Interval, id SegmentID) error {
	lo, hi, ok, err := e.segmentLeaves(iv)
	if err != nil {
		return err
	}

	if !e.segments.Delete(iv.Start, iv.End, id) {
		return fmt.Errorf("%w: %v id %d", ErrUnknownSegment, iv, id)
	}

	if ok {
		if err := e.tree.RangeUpdate(lo, hi, -1); err != nil {
			return err
		}
	}

	return nil
}

// segmentLeaves validates a segment and maps it to the leaves it covers.
func (e *Engine) segmentLeaves(iv Interval) (lo, hi int, ok bool, err error) {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.End) {
		return 0, 0, false, fmt.Errorf("%w: %v has a NaN endpoint", ErrInvalidInterval, iv)
	}

	if math.IsInf(iv.Start, 0) || math.IsInf(iv.End, 0) {
		return 0, 0, false, fmt.Errorf("%w: %v has an infinite endpoint", ErrInvalidInterval, iv)
	}

	if iv.Start > iv.End {
		return 0, 0, false, fmt.Errorf("%w: start %v > end %v", ErrInvalidInterval, iv.Start, iv.End)
	}

	minC, maxC := e.coords.Min(), e.coords.Max()

	outside := iv.End < minC || iv.Start > maxC ||
		(iv.Start < iv.End && (iv.End <= minC || iv.Start >= maxC))
	if outside {
		return 0, 0, false, fmt.Errorf("%w: %v not within [%v, %v]",
			ErrOutOfDomain, iv, minC, maxC)
	}

	lo, hi, ok = e.coords.SegmentRange(iv.Start, iv.End)

	return lo, hi, ok, nil
}

// GetUnion returns the covered parts of iv as a sorted set of disjoint
// intervals. Infinite bounds are allowed and clamp to the coordinate span.
func (e *Engine) GetUnion(iv Interval) (*IntervalSet, error) {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.End) {
		return nil, fmt.Errorf("%w: %v has a NaN endpoint", ErrInvalidInterval, iv)
	}

	if iv.Start > iv.End {
		return nil, fmt.Errorf("%w: start %v > end %v", ErrInvalidInterval, iv.Start, iv.End)
	}

	lo, hi, ok := e.coords.QueryRange(iv.Start, iv.End)
	if !ok {
		return &IntervalSet{}, nil
	}

	set, err := e.tree.extractUnion(lo, hi)
	if err != nil {
		return nil, err
	}

	set.clip(iv.Start, iv.End)

	return set, nil
}

// RootStats returns the aggregates over the whole real line. The unbounded
// regions outside the coordinate span can never be covered, so MinOvp is 0.
func (e *Engine) RootStats() Stats {
	stats := e.tree.Root()
	stats.MinOvp = min(stats.MinOvp, 0)

	return stats
}

// SpanStats returns the aggregates restricted to the coordinate span.
func (e *Engine) SpanStats() Stats {
	return e.tree.Root()
}

// Segments returns the recorded segments overlapping iv in (start, end) order.
// Both the segments and iv are read as half-open; a zero-length iv selects
// the segments containing that point.
func (e *Engine) Segments(iv Interval) []Segment {
	var out []Segment

	for _, found := range e.segments.QueryOverlap(iv.Start, iv.End) {
		s := Segment{Interval: Interval{Start: found.Low, End: found.High}, ID: found.Value}
		if overlapsHalfOpen(s.Interval, iv) {
			out = append(out, s)
		}
	}

	return out
}

// overlapsHalfOpen narrows the closed-interval matches of the segment ledger.
func overlapsHalfOpen(s, q Interval) bool {
	switch {
	case q.Start == q.End && s.Start == s.End:
		return s.Start == q.Start
	case q.Start == q.End:
		return s.Start <= q.Start && q.Start < s.End
	case s.Start == s.End:
		return q.Start <= s.Start && s.Start < q.End
	default:
		return s.Start < q.End && q.Start < s.End
	}
}

// SegmentCount returns the number of recorded segments.
func (e *Engine) SegmentCount() int {
	return e.segments.Len()
}

// Coordinates returns a copy of the breakpoints.
func (e *Engine) Coordinates() []float64 {
	return e.coords.Values()
}

// Profile returns the overlap count of every elementary interval.
func (e *Engine) Profile() []LeafCount {
	counts := e.tree.Counts()
	profile := make([]LeafCount, len(counts))

	for i, c := range counts {
		start, end := e.coords.Span(i)
		profile[i] = LeafCount{Start: start, End: end, Count: c}
	}

	return profile
}

// CountAt returns the overlap count at point p, or 0 outside the span.
func (e *Engine) CountAt(p float64) int64 {
	if math.IsNaN(p) || p < e.coords.Min() || p >= e.coords.Max() {
		return 0
	}

	leaf := e.coords.Locate(p)

	count, _, err := e.tree.QueryMinMax(leaf, leaf)
	if err != nil {
		return 0
	}

	return count
}
