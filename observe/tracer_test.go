package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestInvocationMeta_SpanNameWithNamespace verifies span name includes namespace.
func TestInvocationMeta_SpanNameWithNamespace(t *testing.T) {
	meta := InvocationMeta{
		Namespace: "gh",
		Name:      "issue",
	}

	expected := "resilience.invoke.gh.issue"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestInvocationMeta_SpanNameWithoutNamespace verifies span name without namespace.
func TestInvocationMeta_SpanNameWithoutNamespace(t *testing.T) {
	meta := InvocationMeta{
		Namespace: "",
		Name:      "read",
	}

	expected := "resilience.invoke.read"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestInvocationMeta_ID verifies ID generation with and without namespace.
func TestInvocationMeta_ID(t *testing.T) {
	tests := []struct {
		name     string
		meta     InvocationMeta
		expected string
	}{
		{
			name:     "with namespace",
			meta:     InvocationMeta{Namespace: "payments", Name: "charge"},
			expected: "payments.charge",
		},
		{
			name:     "without namespace",
			meta:     InvocationMeta{Namespace: "", Name: "charge"},
			expected: "charge",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.InvocationID(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestInvocationMeta_Validate verifies Validate requires a name.
func TestInvocationMeta_Validate(t *testing.T) {
	if err := (InvocationMeta{Name: "charge"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := (InvocationMeta{}).Validate(); !errors.Is(err, ErrMissingInvocationName) {
		t.Errorf("Validate() error = %v, want ErrMissingInvocationName", err)
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := InvocationMeta{
		ID:        "payments.charge",
		Namespace: "payments",
		Name:      "charge",
		Kind:      "http-call",
		Tags:      []string{"billing", "external"},
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	if s.Name() != "resilience.invoke.payments.charge" {
		t.Errorf("expected span name 'resilience.invoke.payments.charge', got %q", s.Name())
	}

	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	if v, ok := attrMap["invocation.id"]; !ok || v.AsString() != "payments.charge" {
		t.Errorf("expected invocation.id='payments.charge', got %v", v)
	}
	if v, ok := attrMap["invocation.namespace"]; !ok || v.AsString() != "payments" {
		t.Errorf("expected invocation.namespace='payments', got %v", v)
	}
	if v, ok := attrMap["invocation.name"]; !ok || v.AsString() != "charge" {
		t.Errorf("expected invocation.name='charge', got %v", v)
	}
	if v, ok := attrMap["invocation.error"]; !ok || v.AsBool() != false {
		t.Errorf("expected invocation.error=false, got %v", v)
	}

	if v, ok := attrMap["invocation.kind"]; !ok || v.AsString() != "http-call" {
		t.Errorf("expected invocation.kind='http-call', got %v", v)
	}
}

// TestTracer_SpanAttributesMinimal verifies only required attributes when minimal meta.
func TestTracer_SpanAttributesMinimal(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := InvocationMeta{
		Name: "charge",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	if _, ok := attrMap["invocation.id"]; !ok {
		t.Error("expected invocation.id attribute")
	}
	if _, ok := attrMap["invocation.name"]; !ok {
		t.Error("expected invocation.name attribute")
	}
	if _, ok := attrMap["invocation.error"]; !ok {
		t.Error("expected invocation.error attribute")
	}

	if v, ok := attrMap["invocation.kind"]; ok && v.AsString() != "" {
		t.Errorf("expected no invocation.kind, got %v", v)
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := InvocationMeta{Name: "child_invocation"}

	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")

	childCtx, childSpan := tr.StartSpan(parentCtx, meta)
	tr.EndSpan(childSpan, nil)
	parentSpan.End()
	_ = childCtx

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "resilience.invoke.child_invocation" {
			child = s
			break
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}

	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if !child.Parent().SpanID().IsValid() {
		t.Error("child span should have valid parent span ID")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := InvocationMeta{Name: "failing_invocation"}

	ctx, span := tr.StartSpan(context.Background(), meta)
	testErr := errors.New("execution failed")
	tr.EndSpan(span, testErr)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}

	attrs := s.Attributes()
	var invocationError bool
	for _, a := range attrs {
		if string(a.Key) == "invocation.error" {
			invocationError = a.Value.AsBool()
			break
		}
	}
	if !invocationError {
		t.Error("expected invocation.error=true")
	}
}
