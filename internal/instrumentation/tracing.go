package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all spans created by this module.
const TracerName = "github.com/teemow/calendaragent"

// Span attribute keys.
const (
	SpanAttrTool      = "agent.tool"
	SpanAttrCallID    = "agent.call_id"
	SpanAttrRound     = "agent.round"
	SpanAttrState     = "agent.state"
	SpanAttrModel     = "llm.model"
	SpanAttrWithTools = "llm.with_tools"
	SpanAttrBackend   = "calendar.backend"
	SpanAttrOperation = "calendar.operation"
	SpanAttrEventID   = "calendar.event_id"
	SpanAttrRequestID = "http.request_id"
)

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartAgentSpan starts the root span of one conversation run.
func StartAgentSpan(ctx context.Context, requestID string) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if requestID != "" {
		attrs = append(attrs, attribute.String(SpanAttrRequestID, requestID))
	}
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "agent.run",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartToolSpan starts a span for a tool invocation.
func StartToolSpan(ctx context.Context, toolName, callID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	if callID != "" {
		allAttrs = append(allAttrs, attribute.String(SpanAttrCallID, callID))
	}
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartModelSpan starts a span for a call to the language model endpoint.
func StartModelSpan(ctx context.Context, model string, withTools bool) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "llm.chat",
		trace.WithAttributes(
			attribute.String(SpanAttrModel, model),
			attribute.Bool(SpanAttrWithTools, withTools),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartCalendarSpan starts a span for a calendar backend operation.
func StartCalendarSpan(ctx context.Context, backend, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrBackend, backend),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "calendar."+backend+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
