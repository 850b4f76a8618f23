// Package tracing wraps a small subset of OpenTelemetry's tracing API:
// starting spans, adding span events, and recording errors. The
// orchestrator starts one span per Run and records a failed Run's error on
// it; it starts no per-phase child spans and adds no span events.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/madspark-go/ideaflow")

// StartSpan starts a named span as a child of whatever span is in ctx, or a
// root span if none is present.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// AddEvent attaches a timestamped event with string attributes to span.
func AddEvent(span trace.Span, name string, attrs map[string]string) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	span.AddEvent(name, trace.WithAttributes(kv...))
}

// RecordError marks span as failed and attaches err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
