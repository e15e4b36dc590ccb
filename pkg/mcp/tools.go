package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
)

// Tool name constants.
const (
	ToolNameReset         = "segtree_reset"
	ToolNameAddSegment    = "segtree_add_segment"
	ToolNameRemoveSegment = "segtree_remove_segment"
	ToolNameUnion         = "segtree_union"
	ToolNameStats         = "segtree_stats"
	ToolNameContains      = "segtree_contains"
	ToolNameProfile       = "segtree_profile"
	ToolNameSegments      = "segtree_segments"
)

// ErrEmptyCoordinates indicates the coordinates parameter is empty.
var ErrEmptyCoordinates = errors.New("coordinates parameter is required and must not be empty")

// Input types (auto-generate JSON schemas via struct tags).

// ResetInput is the input schema for the segtree_reset tool.
type ResetInput struct {
	Coordinates []float64 `json:"coordinates" jsonschema:"breakpoints of the engine; duplicates are removed"`
}

// SegmentInput is the input schema for the add and remove tools.
type SegmentInput struct {
	End   float64 `json:"end"          jsonschema:"exclusive end of the segment"`
	ID    int64   `json:"id,omitempty" jsonschema:"optional segment identifier"`
	Start float64 `json:"start"        jsonschema:"inclusive start of the segment"`
}

// RangeInput is the input schema for range queries. Missing bounds are unbounded.
type RangeInput struct {
	End   *float64 `json:"end,omitempty"   jsonschema:"end of the query range (default: +infinity)"`
	Start *float64 `json:"start,omitempty" jsonschema:"start of the query range (default: -infinity)"`
}

// PointInput is the input schema for the segtree_contains tool.
type PointInput struct {
	Point float64 `json:"point" jsonschema:"point to look up"`
}

// EmptyInput is the input schema for tools without parameters.
type EmptyInput struct{}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// UnionOutput is the data returned by segtree_union.
type UnionOutput struct {
	Intervals *segtree.IntervalSet `json:"intervals"`
	Members   int                  `json:"members"`
	Length    float64              `json:"length"`
}

func (s *Server) handleReset(ctx context.Context, _ *mcpsdk.CallToolRequest, input ResetInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Coordinates) == 0 {
		return errorResult(ErrEmptyCoordinates)
	}

	_, err := s.svc.Reset(ctx, input.Coordinates)
	if err != nil {
		return errorResult(err)
	}

	return s.handleStats(ctx, nil, EmptyInput{})
}

func (s *Server) handleAddSegment(ctx context.Context, _ *mcpsdk.CallToolRequest, input SegmentInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	seg := input.segment()

	err := s.svc.AddSegment(ctx, seg.Interval, seg.ID)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(seg)
}

func (s *Server) handleRemoveSegment(ctx context.Context, _ *mcpsdk.CallToolRequest, input SegmentInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	seg := input.segment()

	err := s.svc.RemoveSegment(ctx, seg.Interval, seg.ID)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(seg)
}

func (s *Server) handleUnion(ctx context.Context, _ *mcpsdk.CallToolRequest, input RangeInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	set, err := s.svc.Union(ctx, input.interval())
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(UnionOutput{Intervals: set, Members: set.Len(), Length: set.Length()})
}

func (s *Server) handleStats(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	summary, err := s.svc.Stats(ctx)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(summary)
}

func (s *Server) handleContains(ctx context.Context, _ *mcpsdk.CallToolRequest, input PointInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result, err := s.svc.Contains(ctx, input.Point)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(result)
}

func (s *Server) handleProfile(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	profile, err := s.svc.Profile(ctx)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(profile)
}

func (s *Server) handleSegments(ctx context.Context, _ *mcpsdk.CallToolRequest, input RangeInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	segments, err := s.svc.Segments(ctx, input.interval())
	if err != nil {
		return errorResult(err)
	}

	if segments == nil {
		segments = []segtree.Segment{}
	}

	return jsonResult(segments)
}

func (in SegmentInput) segment() segtree.Segment {
	return segtree.Segment{
		Interval: segtree.Interval{Start: in.Start, End: in.End},
		ID:       segtree.SegmentID(in.ID),
	}
}

func (in RangeInput) interval() segtree.Interval {
	iv := segtree.Interval{Start: math.Inf(-1), End: math.Inf(1)}

	if in.Start != nil {
		iv.Start = *in.Start
	}

	if in.End != nil {
		iv.End = *in.End
	}

	return iv
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
