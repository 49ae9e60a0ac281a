package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "srtalert" {
		t.Errorf("expected service name 'srtalert', got '%s'", cfg.ServiceName)
	}
	if cfg.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(DefaultConfig(), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider failed: %v", err)
	}
}

func TestSpanHelpers_NoProvider(t *testing.T) {
	ctx, span := TracePollCycle(context.Background(), "cycle-1")
	defer span.End()

	fctx, fspan := TraceStatsFetch(ctx, "live/stream")
	AddSpanAttributes(fctx, BitrateKey.Float64(1200), attribute.Bool("ok", true))
	RecordError(fctx, errors.New("test error"))
	MeasureDuration(fctx, time.Now())
	fspan.End()

	_, ospan := TraceOBSRequest(ctx, "GetSceneItemList", "Main")
	if ospan == nil {
		t.Error("expected non-nil span")
	}
	ospan.End()
}

func TestTraceOBSRequest_RecordsScene(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := TracePollCycle(context.Background(), "cycle-2")
	AddSpanAttributes(ctx, GraceKey.String("steady"), WarningKey.String("active"))
	span.End()

	_, ospan := TraceOBSRequest(context.Background(), "SetSceneItemEnabled", "Main")
	ospan.End()

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs[GraceKey].AsString(); got != "steady" {
		t.Errorf("expected grace 'steady', got '%s'", got)
	}
	if got := attrs[WarningKey].AsString(); got != "active" {
		t.Errorf("expected warning 'active', got '%s'", got)
	}

	if ended[1].Name() != "obs.SetSceneItemEnabled" {
		t.Errorf("unexpected span name '%s'", ended[1].Name())
	}
	var scene string
	for _, kv := range ended[1].Attributes() {
		if kv.Key == SceneKey {
			scene = kv.Value.AsString()
		}
	}
	if scene != "Main" {
		t.Errorf("expected scene 'Main', got '%s'", scene)
	}
}
