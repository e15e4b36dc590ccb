package segtree

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// minCoordinates is the smallest coordinate set that yields one elementary interval.
const minCoordinates = 2

// CoordinateIndex holds the sorted, deduplicated breakpoints of the tree.
// Elementary interval i spans [values[i], values[i+1]).
type CoordinateIndex struct {
	values []float64
}

// NewCoordinateIndex sorts and deduplicates coords. The input slice is not modified.
func NewCoordinateIndex(coords []float64) (*CoordinateIndex, error) {
	values := make([]float64, 0, len(coords))

	for i, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coordinate %d is %v", ErrInvalidInput, i, c)
		}

		values = append(values, c)
	}

	slices.Sort(values)
	values = slices.Compact(values)

	if len(values) < minCoordinates {
		return nil, fmt.Errorf("%w: need at least %d distinct coordinates, got %d",
			ErrInvalidInput, minCoordinates, len(values))
	}

	return &CoordinateIndex{values: values}, nil
}

// Len returns the number of distinct coordinates.
func (ci *CoordinateIndex) Len() int {
	return len(ci.values)
}

// Leaves returns the number of elementary intervals.
func (ci *CoordinateIndex) Leaves() int {
	return len(ci.values) - 1
}

// Min returns the first coordinate.
func (ci *CoordinateIndex) Min() float64 {
	return ci.values[0]
}

// Max returns the last coordinate.
func (ci *CoordinateIndex) Max() float64 {
	return ci.values[len(ci.values)-1]
}

// Values returns a copy of the coordinates.
func (ci *CoordinateIndex) Values() []float64 {
	return slices.Clone(ci.values)
}

// Span returns the bounds of elementary interval i.
func (ci *CoordinateIndex) Span(i int) (start, end float64) {
	return ci.values[i], ci.values[i+1]
}

// Locate returns the elementary interval whose span contains value.
// Values left of the span clamp to 0, values at or right of the last
// coordinate clamp to the last leaf.
func (ci *CoordinateIndex) Locate(value float64) int {
	last := ci.Leaves() - 1

	switch {
	case math.IsNaN(value), value < ci.values[0]:
		return 0
	case value >= ci.values[last+1]:
		return last
	}

	// First coordinate strictly greater than value, minus one.
	idx := sort.Search(len(ci.values), func(i int) bool { return ci.values[i] > value }) - 1

	return min(idx, last)
}

// SegmentRange maps [start, end] to the leaves fully contained in it.
// ok is false when no whole leaf fits.
func (ci *CoordinateIndex) SegmentRange(start, end float64) (lo, hi int, ok bool) {
	// First leaf whose left edge is >= start.
	lo = sort.SearchFloat64s(ci.values, start)
	// Last leaf whose right edge is <= end.
	hi = sort.Search(len(ci.values), func(i int) bool { return ci.values[i] > end }) - 2

	if lo > hi || lo >= ci.Leaves() || hi < 0 {
		return 0, 0, false
	}

	return lo, hi, true
}

// QueryRange maps (start, end) to the leaves that overlap it. Infinite
// bounds clamp to the first or last leaf.
func (ci *CoordinateIndex) QueryRange(start, end float64) (lo, hi int, ok bool) {
	if !(start < end) || end <= ci.Min() || start >= ci.Max() {
		return 0, 0, false
	}

	lo, hi = 0, ci.Leaves()-1

	if !math.IsInf(start, -1) {
		lo = ci.Locate(start)
	}

	if !math.IsInf(end, 1) {
		// Last leaf whose left edge is < end.
		hi = sort.Search(len(ci.values), func(i int) bool { return ci.values[i] >= end }) - 1
		hi = min(hi, ci.Leaves()-1)
	}

	if lo > hi {
		return 0, 0, false
	}

	return lo, hi, true
}
