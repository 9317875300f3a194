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

func newRecordingTracer() (*tracetest.SpanRecorder, *tracerImpl) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, &tracerImpl{tracer: tp.Tracer("test")}
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	attrMap := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		attrMap[string(a.Key)] = a.Value
	}
	return attrMap
}

func TestCacheMeta_SpanName(t *testing.T) {
	tests := []struct {
		name     string
		meta     CacheMeta
		expected string
	}{
		{"with namespace", CacheMeta{Namespace: "web", Name: "pages"}, "cache.compute.web.pages"},
		{"without namespace", CacheMeta{Name: "fib"}, "cache.compute.fib"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.SpanName(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestCacheMeta_Validate(t *testing.T) {
	if err := (CacheMeta{Namespace: "web"}).Validate(); !errors.Is(err, ErrMissingCacheName) {
		t.Fatalf("expected ErrMissingCacheName, got %v", err)
	}
	if err := (CacheMeta{Name: "ok"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder, tr := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), CacheMeta{Namespace: "web", Name: "pages"})
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "cache.compute.web.pages" {
		t.Errorf("expected span name 'cache.compute.web.pages', got %q", s.Name())
	}

	attrMap := spanAttrs(s)
	if v, ok := attrMap["cache.id"]; !ok || v.AsString() != "web.pages" {
		t.Errorf("expected cache.id='web.pages', got %v", v)
	}
	if v, ok := attrMap["cache.namespace"]; !ok || v.AsString() != "web" {
		t.Errorf("expected cache.namespace='web', got %v", v)
	}
	if v, ok := attrMap["cache.compute.error"]; !ok || v.AsBool() {
		t.Errorf("expected cache.compute.error=false, got %v", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status().Code)
	}
}

func TestTracer_ErrorStatus(t *testing.T) {
	recorder, tr := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), CacheMeta{Name: "fib"})
	tr.EndSpan(span, errors.New("boom"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "boom" {
		t.Errorf("expected Error status 'boom', got %+v", s.Status())
	}
	if v := spanAttrs(s)["cache.compute.error"]; !v.AsBool() {
		t.Error("expected cache.compute.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error recorded as a span event")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otelTracer := tp.Tracer("test")
	tr := NewTracer(otelTracer)

	parentCtx, parentSpan := otelTracer.Start(context.Background(), "parent")
	_, childSpan := tr.StartSpan(parentCtx, CacheMeta{Name: "child"})
	tr.EndSpan(childSpan, nil)
	parentSpan.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("child span is not parented to the caller's span")
	}
}

func TestNewTracer_NilIsNoop(t *testing.T) {
	tr := NewTracer(nil)
	_, span := tr.StartSpan(context.Background(), CacheMeta{Name: "x"})
	tr.EndSpan(span, errors.New("ignored"))
	if span.SpanContext().IsValid() {
		t.Error("expected no-op span")
	}
}
