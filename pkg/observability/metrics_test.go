package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.RelocationMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewRelocationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return metrics, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestRelocationMetrics_RecordFile(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordFile(ctx, observability.StatusChanged, 2*time.Millisecond)
	metrics.RecordFile(ctx, observability.StatusUnchanged, time.Millisecond)
	metrics.RecordFile(ctx, observability.StatusChanged, time.Millisecond)

	rm := collectMetrics(t, reader)

	total := findMetric(rm, "nsisolate.files.total")
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var count int64
	for _, dp := range sum.DataPoints {
		count += dp.Value
	}

	assert.Equal(t, int64(3), count)
	assert.Len(t, sum.DataPoints, 2)
	assert.NotNil(t, findMetric(rm, "nsisolate.file.duration.seconds"))
}

func TestRelocationMetrics_RecordErrorAndRun(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordError(ctx, "parse")
	metrics.RecordRun(ctx, time.Second)

	rm := collectMetrics(t, reader)

	assert.NotNil(t, findMetric(rm, "nsisolate.errors.total"))
	assert.NotNil(t, findMetric(rm, "nsisolate.run.duration.seconds"))
}

func TestRelocationMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	done := metrics.TrackInflight(ctx)

	rm := collectMetrics(t, reader)
	inflight := findMetric(rm, "nsisolate.inflight.files")
	require.NotNil(t, inflight)

	sum, ok := inflight.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	done()

	rm = collectMetrics(t, reader)
	sum, ok = findMetric(rm, "nsisolate.inflight.files").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}
