package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupRecorder(t *testing.T) (Recorder, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})

	rec, err := New(provider)
	require.NoError(t, err)
	return rec, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordRun(t *testing.T) {
	rec, reader := setupRecorder(t)
	ctx := context.Background()

	rec.RecordRun(ctx, true, 20*time.Millisecond)
	rec.RecordRun(ctx, false, 5*time.Millisecond)

	runs := findMetric(t, reader, "reconciler.runs")
	require.NotNil(t, runs)
	sum, ok := runs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)

	latency := findMetric(t, reader, "reconciler.run.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestRecordWrite(t *testing.T) {
	rec, reader := setupRecorder(t)
	ctx := context.Background()

	rec.RecordWrite(ctx, "Module", "insert", 3)
	rec.RecordWrite(ctx, "Module", "insert", 2)
	rec.RecordWrite(ctx, "Module", "delete", 0)

	writes := findMetric(t, reader, "reconciler.writes")
	require.NotNil(t, writes)
	sum := writes.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
}

func TestRecordEvent(t *testing.T) {
	rec, reader := setupRecorder(t)
	rec.RecordEvent(context.Background(), "moduleState", "s")

	events := findMetric(t, reader, "reconciler.events")
	require.NotNil(t, events)
	sum := events.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestNoop(t *testing.T) {
	var rec Recorder = Noop{}
	assert.NotPanics(t, func() {
		rec.RecordRun(context.Background(), true, time.Second)
		rec.RecordWrite(context.Background(), "Arp", "patch", 1)
		rec.RecordEvent(context.Background(), "moduleState", "e")
	})
}
