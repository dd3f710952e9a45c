package telemetry

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// slogSpanExporter implements sdktrace.SpanExporter by writing each
// finished span as a structured log line, standing in for an OTLP
// collector the gateway has no fixed endpoint for.
type slogSpanExporter struct {
	logger *slog.Logger
}

func newSlogSpanExporter(logger *slog.Logger) *slogSpanExporter {
	return &slogSpanExporter{logger: logger}
}

func (e *slogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attrs := make([]any, 0, 8)
		for _, kv := range span.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.AsInterface())
		}
		e.logger.InfoContext(ctx, "span",
			append([]any{
				"name", span.Name(),
				"trace_id", span.SpanContext().TraceID().String(),
				"span_id", span.SpanContext().SpanID().String(),
				"duration_ms", span.EndTime().Sub(span.StartTime()).Milliseconds(),
				"status", span.Status().Code.String(),
			}, attrs...)...,
		)
	}
	return nil
}

func (e *slogSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
