package segtree

import (
	"testing"
)

// Benchmark constants.
const (
	benchCoordinates = 10000
	benchSegments    = 1000
	benchWidth       = 37
	benchStride      = 7
)

func benchEngine(b *testing.B) *Engine {
	b.Helper()

	coords := make([]float64, benchCoordinates)
	for i := range coords {
		coords[i] = float64(i)
	}

	e, err := New(coords)
	if err != nil {
		b.Fatal(err)
	}

	return e
}

func benchSegment(i int) Interval {
	start := float64((i * benchStride) % (benchCoordinates - benchWidth))

	return Interval{Start: start, End: start + benchWidth}
}

// BenchmarkAddSegment benchmarks lazy range updates.
func BenchmarkAddSegment(b *testing.B) {
	e := benchEngine(b)

	b.ResetTimer()

	for i := range b.N {
		if err := e.AddSegment(benchSegment(i), SegmentID(i)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGetUnion benchmarks union extraction over the whole span.
func BenchmarkGetUnion(b *testing.B) {
	e := benchEngine(b)

	for i := range benchSegments {
		if err := e.AddSegment(benchSegment(i), SegmentID(i)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for range b.N {
		if _, err := e.GetUnion(Unbounded()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRootStats benchmarks the cached root read.
func BenchmarkRootStats(b *testing.B) {
	e := benchEngine(b)

	for i := range benchSegments {
		if err := e.AddSegment(benchSegment(i), SegmentID(i)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for range b.N {
		_ = e.RootStats()
	}
}
