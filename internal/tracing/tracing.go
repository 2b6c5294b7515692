package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "critical-approve"

// Start – opens a span on the global tracer provider; no-op until an SDK provider is installed
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End – records err (if any) on the span and closes it
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func Code(code string) attribute.KeyValue {
	return attribute.String("approval.code", code)
}

func ActionType(id string) attribute.KeyValue {
	return attribute.String("approval.action_type", id)
}
