package segtree

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Endpoints names an endpoint convention.
type Endpoints int

// Endpoint conventions.
const (
	// HalfOpen treats [start, end) as the covered span.
	HalfOpen Endpoints = iota
	// Closed treats [start, end] as the covered span.
	Closed
)

// Convention is the endpoint convention used for segments and union members.
// A segment [a, b) covers a and not b, so segments that meet at a breakpoint
// never overlap there.
const Convention = HalfOpen

// String returns the bracket notation of the convention.
func (e Endpoints) String() string {
	if e == Closed {
		return "[start, end]"
	}

	return "[start, end)"
}

// Interval is a real-valued range. Start may be -Inf and End may be +Inf in
// queries.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end"   yaml:"end"`
}

// Length returns End - Start.
func (iv Interval) Length() float64 {
	return iv.End - iv.Start
}

// String formats the interval in the package endpoint convention.
func (iv Interval) String() string {
	closing := ")"
	if Convention == Closed {
		closing = "]"
	}

	return "[" + formatFloat(iv.Start) + ", " + formatFloat(iv.End) + closing
}

// Unbounded is the query interval (-Inf, +Inf).
func Unbounded() Interval {
	return Interval{Start: math.Inf(-1), End: math.Inf(1)}
}

// IntervalSet is an immutable, sorted union of disjoint, non-adjacent intervals.
type IntervalSet struct {
	intervals []Interval
}

// NewIntervalSet builds a set from arbitrary intervals, merging overlapping
// and adjacent ones. Empty intervals are dropped.
func NewIntervalSet(intervals ...Interval) *IntervalSet {
	sorted := make([]Interval, 0, len(intervals))

	for _, iv := range intervals {
		if iv.Start < iv.End {
			sorted = append(sorted, iv)
		}
	}

	slices.SortFunc(sorted, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	var set IntervalSet
	for _, iv := range sorted {
		set.appendMerged(iv)
	}

	return &set
}

// appendMerged appends iv, extending the last member when they touch.
// iv must not start before the last member.
func (s *IntervalSet) appendMerged(iv Interval) {
	if n := len(s.intervals); n > 0 && iv.Start <= s.intervals[n-1].End {
		s.intervals[n-1].End = max(s.intervals[n-1].End, iv.End)

		return
	}

	s.intervals = append(s.intervals, iv)
}

// Len returns the number of disjoint members.
func (s *IntervalSet) Len() int {
	return len(s.intervals)
}

// Empty reports whether the set covers nothing.
func (s *IntervalSet) Empty() bool {
	return len(s.intervals) == 0
}

// Intervals returns a copy of the members in ascending order.
func (s *IntervalSet) Intervals() []Interval {
	return slices.Clone(s.intervals)
}

// Length returns the total measure of the set.
func (s *IntervalSet) Length() float64 {
	var total float64
	for _, iv := range s.intervals {
		total += iv.Length()
	}

	return total
}

// ContainsPoint reports whether p lies in some member. NaN and infinite
// points are never contained.
func (s *IntervalSet) ContainsPoint(p float64) bool {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return false
	}

	// First member ending after p (or at p for closed members).
	i := sort.Search(len(s.intervals), func(i int) bool {
		if Convention == Closed {
			return s.intervals[i].End >= p
		}

		return s.intervals[i].End > p
	})

	return i < len(s.intervals) && s.intervals[i].Start <= p
}

// Equal reports whether both sets have identical members.
func (s *IntervalSet) Equal(other *IntervalSet) bool {
	return slices.Equal(s.intervals, other.intervals)
}

// String formats the set as a union of intervals.
func (s *IntervalSet) String() string {
	if len(s.intervals) == 0 {
		return "∅"
	}

	parts := make([]string, len(s.intervals))
	for i, iv := range s.intervals {
		parts[i] = iv.String()
	}

	return strings.Join(parts, " ∪ ")
}

// MarshalJSON encodes the set as an array of [start, end] pairs.
func (s *IntervalSet) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(s.intervals))
	for i, iv := range s.intervals {
		pairs[i] = [2]float64{iv.Start, iv.End}
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("marshal interval set: %w", err)
	}

	return data, nil
}

// UnmarshalJSON decodes an array of [start, end] pairs. Overlapping and
// adjacent pairs are merged.
func (s *IntervalSet) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64

	err := json.Unmarshal(data, &pairs)
	if err != nil {
		return fmt.Errorf("unmarshal interval set: %w", err)
	}

	intervals := make([]Interval, len(pairs))
	for i, p := range pairs {
		intervals[i] = Interval{Start: p[0], End: p[1]}
	}

	*s = *NewIntervalSet(intervals...)

	return nil
}

// MarshalYAML encodes the set as a sequence of [start, end] pairs.
func (s *IntervalSet) MarshalYAML() (any, error) {
	pairs := make([][2]float64, len(s.intervals))
	for i, iv := range s.intervals {
		pairs[i] = [2]float64{iv.Start, iv.End}
	}

	return pairs, nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
