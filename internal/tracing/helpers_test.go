package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan(t *testing.T) {
	rec := withRecorder(t)

	ctx, end := StartSpan(context.Background(), "ingest.derive", attribute.Int("records", 3))
	SetAttributes(ctx, attribute.Int("edges", 2))
	end(nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "ingest.derive" {
		t.Errorf("unexpected span name %q", s.Name())
	}
	if s.Status().Code == codes.Error {
		t.Error("expected non-error status")
	}
	found := map[attribute.Key]bool{}
	for _, kv := range s.Attributes() {
		found[kv.Key] = true
	}
	if !found["records"] || !found["edges"] {
		t.Errorf("missing attributes: %v", s.Attributes())
	}
}

func TestStartSpan_RecordsError(t *testing.T) {
	rec := withRecorder(t)

	_, end := StartSpan(context.Background(), "ingest.fetch")
	end(errors.New("upstream down"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "upstream down" {
		t.Errorf("unexpected status %+v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestStartDBSpan(t *testing.T) {
	rec := withRecorder(t)

	_, end := StartDBSpan(context.Background(), "graph_snapshots", "insert")
	end(nil)

	s := rec.Ended()[0]
	if s.Name() != "insert graph_snapshots" {
		t.Errorf("unexpected span name %q", s.Name())
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.IsEnabled() {
		t.Error("expected disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if p.Tracer("x") == nil {
		t.Error("expected tracer from disabled provider")
	}
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing service name", Config{Enabled: true, SamplingRate: 1}},
		{"sampling above one", Config{Enabled: true, ServiceName: "poigraph", SamplingRate: 1.5}},
		{"unknown exporter", Config{Enabled: true, ServiceName: "poigraph", SamplingRate: 1, ExporterType: "zipkin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
