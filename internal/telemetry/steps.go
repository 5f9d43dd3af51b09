package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const workflowScopeName = "github.com/nflow-dev/nflow/workflow"

var (
	stepCounterOnce sync.Once
	stepCounter     metric.Int64Counter
)

// steps returns the nflow.workflow.steps counter, created on first use
// against whatever meter provider is installed at that point.
func steps() metric.Int64Counter {
	stepCounterOnce.Do(func() {
		stepCounter, _ = Meter(workflowScopeName).Int64Counter("nflow.workflow.steps",
			metric.WithDescription("Workflow steps executed, by transition and outcome"),
		)
	})
	return stepCounter
}

// StartSpan opens a span named name under the workflow scope.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer(workflowScopeName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordStep counts one executed workflow step.
func RecordStep(ctx context.Context, transition, step, outcome string) {
	c := steps()
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(
		attribute.String("nflow.transition", transition),
		attribute.String("nflow.step", step),
		attribute.String("nflow.outcome", outcome),
	))
}
