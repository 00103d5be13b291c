package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InvocationMeta identifies a single guarded invocation for telemetry
// purposes: the strategy pipeline a call passed through, not the business
// payload it carried.
type InvocationMeta struct {
	ID        string   // Fully qualified invocation ID (namespace.name or just name)
	Namespace string   // Invocation namespace (may be empty)
	Name      string   // Invocation name (required)
	Kind      string   // Invocation kind, e.g. "http-call", "db-query" (optional)
	Tags      []string // Tags for discovery/filtering (optional)
}

// Validate reports ErrMissingInvocationName if Name is empty.
func (m InvocationMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingInvocationName
	}
	return nil
}

// SpanName returns the deterministic span name for this invocation.
// Format: resilience.invoke.<namespace>.<name> or resilience.invoke.<name>
func (m InvocationMeta) SpanName() string {
	if m.Namespace != "" {
		return "resilience.invoke." + m.Namespace + "." + m.Name
	}
	return "resilience.invoke." + m.Name
}

// InvocationID returns the fully qualified invocation identifier.
// If ID field is set, returns it. Otherwise constructs from namespace and name.
func (m InvocationMeta) InvocationID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Tracer wraps OpenTelemetry tracing with invocation-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a guarded invocation.
	StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with invocation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	attrs := []attribute.KeyValue{
		attribute.String("invocation.id", meta.InvocationID()),
		attribute.String("invocation.name", meta.Name),
		attribute.Bool("invocation.error", false), // Will be updated in EndSpan if error
	}

	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("invocation.namespace", meta.Namespace))
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("invocation.kind", meta.Kind))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("invocation.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("invocation.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
