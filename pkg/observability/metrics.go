package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal    = "nsisolate.files.total"
	metricFileDuration  = "nsisolate.file.duration.seconds"
	metricRunDuration   = "nsisolate.run.duration.seconds"
	metricErrorsTotal   = "nsisolate.errors.total"
	metricInflightFiles = "nsisolate.inflight.files"

	attrStatus = "status"
	attrStage  = "stage"
)

// File outcomes recorded under the status attribute.
const (
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// fileBucketBoundaries covers 100µs to 10s; a single vendor file rarely
// takes longer than a few milliseconds to parse and print.
var fileBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// runBucketBoundaries covers 100ms to 600s for whole vendor trees.
var runBucketBoundaries = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RelocationMetrics holds the OTel instruments of an isolation run.
type RelocationMetrics struct {
	filesTotal    metric.Int64Counter
	fileDuration  metric.Float64Histogram
	runDuration   metric.Float64Histogram
	errorsTotal   metric.Int64Counter
	inflightFiles metric.Int64UpDownCounter
}

// NewRelocationMetrics creates relocation instruments from the given meter.
func NewRelocationMetrics(mt metric.Meter) (*RelocationMetrics, error) {
	filesTotal, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Total number of PHP files processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	fileDuration, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("Per-file parse, relocate and print duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(fileBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	runDuration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Whole run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(runBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	errorsTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of file failures by stage"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightFiles,
		metric.WithDescription("Number of files currently being processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightFiles, err)
	}

	return &RelocationMetrics{
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		runDuration:   runDuration,
		errorsTotal:   errorsTotal,
		inflightFiles: inflight,
	}, nil
}

// RecordFile records one processed file with its outcome and duration.
func (rm *RelocationMetrics) RecordFile(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	rm.filesTotal.Add(ctx, 1, attrs)
	rm.fileDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordError counts a failure at the given stage (read, parse, write).
func (rm *RelocationMetrics) RecordError(ctx context.Context, stage string) {
	rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStage, stage)))
}

// RecordRun records the duration of a whole run.
func (rm *RelocationMetrics) RecordRun(ctx context.Context, duration time.Duration) {
	rm.runDuration.Record(ctx, duration.Seconds())
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *RelocationMetrics) TrackInflight(ctx context.Context) func() {
	rm.inflightFiles.Add(ctx, 1)

	return func() {
		rm.inflightFiles.Add(ctx, -1)
	}
}
