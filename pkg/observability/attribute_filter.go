package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedNamespaces lists the attribute namespaces that reach the exporter.
// Engine spans carry bounds and ids under segment.*, query.*, union.* and engine.*.
var exportedNamespaces = []string{
	"segtree", "engine", "segment", "query", "union", "workload",
	"http", "mcp", "error",
}

// sensitiveNamespaces are stripped even when another rule would keep them.
var sensitiveNamespaces = []string{"user"}

// sensitiveKeys are stripped by exact match.
var sensitiveKeys = []string{"email", "request.body", "response.body"}

// keyVerdict is the filter decision for one attribute key.
type keyVerdict int

const (
	verdictKeep keyVerdict = iota
	verdictSensitive
	verdictUnknown
)

// classifyKey decides whether key is exported.
func classifyKey(key string) keyVerdict {
	if slices.Contains(sensitiveKeys, key) {
		return verdictSensitive
	}

	namespace, _, _ := strings.Cut(key, ".")

	switch {
	case slices.Contains(sensitiveNamespaces, namespace):
		return verdictSensitive
	case slices.Contains(exportedNamespaces, namespace):
		return verdictKeep
	default:
		return verdictUnknown
	}
}

// attributeFilter strips span attributes outside the exported namespaces
// before handing the span to its delegate.
type attributeFilter struct {
	sdktrace.SpanProcessor

	logger *slog.Logger
}

// NewAttributeFilter wraps delegate so that exported spans only carry
// attributes from known namespaces. Sensitive keys (user.*, email, request
// and response bodies) are always dropped. A non-nil logger receives one
// warning per dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{SpanProcessor: delegate, logger: logger}
}

// OnEnd hands a filtered view of s to the delegate. ReadOnlySpan cannot be
// mutated in place.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.SpanProcessor.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

// Shutdown shuts the delegate down.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.SpanProcessor.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush flushes the delegate.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.SpanProcessor.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) keep(kv attribute.KeyValue) bool {
	verdict := classifyKey(string(kv.Key))
	if verdict == verdictKeep {
		return true
	}

	if f.logger != nil {
		f.logger.Warn("attribute blocked by filter",
			"key", string(kv.Key), "sensitive", verdict == verdictSensitive)
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	attrs := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		if s.filter.keep(kv) {
			kept = append(kept, kv)
		}
	}

	return kept
}
