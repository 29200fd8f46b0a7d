package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("livedata")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartFlushSpan starts a span around a queue flush of entries calls.
	StartFlushSpan(ctx context.Context, entries int) (context.Context, trace.Span)

	// StartRefreshSpan starts a span around a full view re-evaluation.
	StartRefreshSpan(ctx context.Context, view string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartFlushSpan starts a span around a queue flush.
func (m *otelSpanManager) StartFlushSpan(ctx context.Context, entries int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "livedata.queue.flush",
		trace.WithAttributes(attribute.Int("queue.entries", entries)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRefreshSpan starts a span around a view refresh.
func (m *otelSpanManager) StartRefreshSpan(ctx context.Context, view string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "livedata.view.refresh",
		trace.WithAttributes(attribute.String("view.name", view)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
