// Package mcp implements a Model Context Protocol server exposing the
// interval-coverage engine as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "segtree"
	// defaultVersion is reported when ServerDeps.Version is empty.
	defaultVersion = "dev"

	// toolCount is the expected number of registered tools.
	toolCount = 8
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Service is the shared engine. Nil creates a private one.
	Service *service.Service

	// Version is reported as the server implementation version.
	Version string

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the engine tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	svc     *service.Service
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server with all engine tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	version := deps.Version
	if version == "" {
		version = defaultVersion
	}

	svc := deps.Service
	if svc == nil {
		svc = service.New(service.Deps{Logger: deps.Logger, Tracer: deps.Tracer})
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		},
		opts,
	)

	srv := &Server{
		inner:   inner,
		svc:     svc,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all engine MCP tools to the server.
func (s *Server) registerTools() {
	addTool(s, ToolNameReset, resetToolDescription, s.handleReset)
	addTool(s, ToolNameAddSegment, addSegmentToolDescription, s.handleAddSegment)
	addTool(s, ToolNameRemoveSegment, removeSegmentToolDescription, s.handleRemoveSegment)
	addTool(s, ToolNameUnion, unionToolDescription, s.handleUnion)
	addTool(s, ToolNameStats, statsToolDescription, s.handleStats)
	addTool(s, ToolNameContains, containsToolDescription, s.handleContains)
	addTool(s, ToolNameProfile, profileToolDescription, s.handleProfile)
	addTool(s, ToolNameSegments, segmentsToolDescription, s.handleSegments)
}

// toolHandler is the typed handler signature shared by every engine tool.
type toolHandler[In any] func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error)

// addTool registers handler behind the per-call span and RED metrics.
func addTool[In any](s *Server, name, description string, handler toolHandler[In]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[In, ToolOutput](instrument(s, name, handler)))

	s.trackTool(name)
}

const (
	// mcpSpanPrefix prefixes tool span names and metric op labels.
	mcpSpanPrefix = "mcp."
	// traceIDMetaKey labels the trace id appended to sampled tool results.
	traceIDMetaKey = "trace_id"
)

// instrument wraps handler with an OTel span and RED metrics. Each layer is
// skipped when its dependency is nil. Tool-level failures (IsError results)
// count as errors even though the handler returns a nil error.
func instrument[In any](s *Server, name string, handler toolHandler[In]) toolHandler[In] {
	op := mcpSpanPrefix + name
	tracer, metrics := s.tracer, s.metrics

	if tracer == nil && metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		defer metrics.TrackInflight(ctx, op)()

		var span trace.Span

		if tracer != nil {
			ctx, span = tracer.Start(ctx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		result, output, err := handler(ctx, req, input)

		failed := err != nil || (result != nil && result.IsError)

		if span != nil {
			if sc := span.SpanContext(); sc.IsSampled() && result != nil {
				result.Content = append(result.Content,
					&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID())})
			}
		}

		status := observability.StatusOK
		if failed {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	resetToolDescription = "Load a new coordinate set into the interval-coverage engine. " +
		"Discards every recorded segment and returns the fresh engine stats."

	addSegmentToolDescription = "Record a half-open segment [start, end). " +
		"Raises the overlap count of every elementary interval it fully contains."

	removeSegmentToolDescription = "Remove a segment previously recorded with the same start, end and id."

	unionToolDescription = "Return the covered parts of a range as sorted disjoint intervals. " +
		"Omitted bounds are unbounded."

	statsToolDescription = "Return covered length and overlap extremes for the whole line and the coordinate span."

	containsToolDescription = "Report whether a point is covered and how many segments overlap it."

	profileToolDescription = "Return the overlap count of every elementary interval."

	segmentsToolDescription = "List the recorded segments that overlap a range. Omitted bounds are unbounded."
)
