package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestEnabled(t *testing.T) {
	t.Setenv("NFLOW_OTEL_ENABLED", "")
	if Enabled() {
		t.Error("Enabled() = true with empty env, want false")
	}
	t.Setenv("NFLOW_OTEL_ENABLED", "1")
	if Enabled() {
		t.Error("Enabled() = true for \"1\", want only \"true\" to enable")
	}
	t.Setenv("NFLOW_OTEL_ENABLED", "true")
	if !Enabled() {
		t.Error("Enabled() = false for \"true\"")
	}
}

func TestInitDisabledInstallsNoop(t *testing.T) {
	t.Setenv("NFLOW_OTEL_ENABLED", "")
	if err := Init(context.Background(), "nflow", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(shutdownFns) != 0 {
		t.Errorf("shutdownFns = %d, want none when disabled", len(shutdownFns))
	}

	_, span := StartSpan(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("span from no-op provider has a valid context")
	}
	EndSpan(span, errors.New("boom"))
	RecordStep(context.Background(), "start", "switch branch", "ok")
}

func TestInitEnabledWithoutExporters(t *testing.T) {
	t.Setenv("NFLOW_OTEL_ENABLED", "true")
	t.Setenv("NFLOW_OTEL_STDOUT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	ctx := context.Background()
	if err := Init(ctx, "nflow", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() {
		Shutdown(context.Background())
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
	})

	if len(shutdownFns) != 2 {
		t.Errorf("shutdownFns = %d, want trace and metric providers", len(shutdownFns))
	}
	_, span := otel.Tracer("t").Start(ctx, "real")
	if !span.SpanContext().IsValid() {
		t.Error("span from SDK provider has no valid context")
	}
	span.End()
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "a", "b"); got != "a" {
		t.Errorf("firstNonEmpty() = %q, want a", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}
