package workload

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

// Result is the outcome of replaying a workload.
type Result struct {
	Name    string               `json:"name,omitempty" yaml:"name,omitempty"`
	Summary service.Summary      `json:"summary"        yaml:"summary"`
	Queries []QueryResult        `json:"queries"        yaml:"queries"`
	Points  []service.PointCount `json:"points"         yaml:"points"`
	Profile []segtree.LeafCount  `json:"profile"        yaml:"profile"`
}

// QueryResult is the union answer to one query.
type QueryResult struct {
	Query   Query                `json:"query"   yaml:"query"`
	Union   *segtree.IntervalSet `json:"union"   yaml:"union"`
	Members int                  `json:"members" yaml:"members"`
	Length  float64              `json:"length"  yaml:"length"`
}

// Run resets svc to the workload coordinates, adds every segment, removes
// every removal and answers the queries and point lookups in order.
func Run(ctx context.Context, svc *service.Service, w *Workload) (*Result, error) {
	_, err := svc.Reset(ctx, w.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	for i, seg := range w.Segments {
		err = svc.AddSegment(ctx, seg.Interval, seg.ID)
		if err != nil {
			return nil, fmt.Errorf("segments[%d] %v: %w", i, seg.Interval, err)
		}
	}

	for i, seg := range w.Removals {
		err = svc.RemoveSegment(ctx, seg.Interval, seg.ID)
		if err != nil {
			return nil, fmt.Errorf("removals[%d] %v: %w", i, seg.Interval, err)
		}
	}

	res := &Result{
		Name:    w.Name,
		Queries: make([]QueryResult, 0, len(w.Queries)),
		Points:  make([]service.PointCount, 0, len(w.Points)),
	}

	for i, q := range w.Queries {
		set, unionErr := svc.Union(ctx, q.Interval())
		if unionErr != nil {
			return nil, fmt.Errorf("queries[%d] %s: %w", i, q.Label(), unionErr)
		}

		res.Queries = append(res.Queries, QueryResult{
			Query:   q,
			Union:   set,
			Members: set.Len(),
			Length:  set.Length(),
		})
	}

	for _, p := range w.Points {
		pc, containsErr := svc.Contains(ctx, p)
		if containsErr != nil {
			return nil, fmt.Errorf("point %v: %w", p, containsErr)
		}

		res.Points = append(res.Points, pc)
	}

	res.Summary, err = svc.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	res.Profile, err = svc.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	return res, nil
}
