package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder records reconciliation metrics.
// Use New for OTel metrics or Noop{} when disabled.
type Recorder interface {
	// RecordRun records a finished commit run.
	RecordRun(ctx context.Context, success bool, duration time.Duration)
	// RecordWrite records rows written for an entity type. Op is one of
	// insert, update, patch, delete or corrective.
	RecordWrite(ctx context.Context, entity, op string, n int)
	// RecordEvent records an emitted state-change event.
	RecordEvent(ctx context.Context, eventType, state string)
}

type otelRecorder struct {
	runs       metric.Int64Counter
	runLatency metric.Float64Histogram
	writes     metric.Int64Counter
	events     metric.Int64Counter
}

// New creates a Recorder on the given meter provider. A nil provider uses
// the global OTel provider.
func New(provider metric.MeterProvider) (Recorder, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter("inventory-reconciler")

	runs, err := meter.Int64Counter("reconciler.runs",
		metric.WithDescription("Number of commit runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("reconciler.run.latency_ms",
		metric.WithDescription("Commit run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	writes, err := meter.Int64Counter("reconciler.writes",
		metric.WithDescription("Rows written to canonical storage"),
	)
	if err != nil {
		return nil, err
	}

	events, err := meter.Int64Counter("reconciler.events",
		metric.WithDescription("State-change events emitted"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		runs:       runs,
		runLatency: runLatency,
		writes:     writes,
		events:     events,
	}, nil
}

func (m *otelRecorder) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelRecorder) RecordWrite(ctx context.Context, entity, op string, n int) {
	if n <= 0 {
		return
	}
	m.writes.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("op", op),
	))
}

func (m *otelRecorder) RecordEvent(ctx context.Context, eventType, state string) {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("state", state),
	))
}

// Noop is a Recorder that discards everything.
type Noop struct{}

func (Noop) RecordRun(context.Context, bool, time.Duration)   {}
func (Noop) RecordWrite(context.Context, string, string, int) {}
func (Noop) RecordEvent(context.Context, string, string)      {}
