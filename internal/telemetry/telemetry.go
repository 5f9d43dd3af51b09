// Package telemetry wires OpenTelemetry into nflow.
//
// Nothing is exported unless NFLOW_OTEL_ENABLED=true; otherwise the global
// providers are no-ops and spans cost nothing.
//
//	NFLOW_OTEL_ENABLED=true               turn telemetry on
//	NFLOW_OTEL_STDOUT=true                pretty-print spans and metrics to stdout
//	OTEL_EXPORTER_OTLP_METRICS_ENDPOINT   OTLP/HTTP collector for metrics
//	OTEL_EXPORTER_OTLP_ENDPOINT           fallback for the above
//
// Spans are only ever written to stdout. Metrics go to stdout, an OTLP
// collector, or both.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	envEnabled = "NFLOW_OTEL_ENABLED"
	envStdout  = "NFLOW_OTEL_STDOUT"

	defaultScope = "github.com/nflow-dev/nflow"

	stdoutInterval = 15 * time.Second
	otlpInterval   = 30 * time.Second
)

// shutdownFns flush and stop whatever Init installed, in order.
var shutdownFns []func(context.Context) error

// Enabled reports whether NFLOW_OTEL_ENABLED is exactly "true".
func Enabled() bool {
	return os.Getenv(envEnabled) == "true"
}

func toStdout() bool {
	return os.Getenv(envStdout) == "true"
}

// Init installs the global tracer and meter providers for one CLI run.
func Init(ctx context.Context, serviceName, version string) error {
	if !Enabled() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	tracing := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if toStdout() {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("telemetry: stdout trace exporter: %w", err)
		}
		tracing = append(tracing, sdktrace.WithSyncer(exp))
	}
	tp := sdktrace.NewTracerProvider(tracing...)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)

	readers, err := metricReaders(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	metering := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		metering = append(metering, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(metering...)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)

	return nil
}

// metricReaders returns one periodic reader per configured destination.
func metricReaders(ctx context.Context) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if toStdout() {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(stdoutInterval)))
	}

	endpoint := firstNonEmpty(
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
	if endpoint != "" {
		exp, err := buildOTLPMetricExporter(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(otlpInterval)))
	}

	return readers, nil
}

// Tracer returns the named tracer; "" means nflow's default scope.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(firstNonEmpty(name, defaultScope))
}

// Meter returns the named meter; "" means nflow's default scope.
func Meter(name string) metric.Meter {
	return otel.Meter(firstNonEmpty(name, defaultScope))
}

// Shutdown flushes pending spans and metrics. Errors are dropped: the
// command has already finished by the time this runs.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
