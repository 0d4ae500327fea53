package isolate

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
)

// Report aggregates the results of a run.
type Report struct {
	Root string

	// Results holds one entry per processed file, sorted by path.
	Results []FileResult

	Scanned     int
	Changed     int
	Failed      int
	BytesBefore int64
	BytesAfter  int64
	Duration    time.Duration
	DryRun      bool
}

// Failures returns the failed results.
func (r *Report) Failures() []FileResult {
	var failed []FileResult

	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	return failed
}

// Run discovers and relocates every PHP source under root. File failures
// are logged and recorded in the report; with FailFast the first one
// cancels the remaining work and is returned together with the partial
// report.
func (iso *Isolator) Run(ctx context.Context, root string) (*Report, error) {
	ctx, span := iso.opts.Tracer.Start(ctx, "nsisolate.run")
	defer span.End()

	start := time.Now()

	paths, err := Discover(ctx, root, iso.opts.ExcludeDirs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discover")

		return nil, err
	}

	iso.opts.Logger.InfoContext(ctx, "discovered PHP sources",
		"root", root, "files", len(paths), "workers", iso.opts.Workers)

	results := make([]FileResult, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(iso.opts.Workers)

	for idx, path := range paths {
		group.Go(func() error {
			if ctxErr := groupCtx.Err(); ctxErr != nil {
				return ctxErr
			}

			fileCtx := observability.WithFile(groupCtx, path)

			res, fileErr := iso.ProcessFile(fileCtx, path)
			results[idx] = res

			if fileErr == nil {
				return nil
			}

			iso.opts.Logger.WarnContext(fileCtx, "file failed",
				"syntax", IsSyntaxError(fileErr), "error", fileErr)

			if iso.opts.FailFast {
				return fileErr
			}

			return nil
		})
	}

	waitErr := group.Wait()

	report := newReport(root, results, iso.opts.DryRun, time.Since(start))

	span.SetAttributes(
		attribute.Int("files.scanned", report.Scanned),
		attribute.Int("files.changed", report.Changed),
		attribute.Int("files.failed", report.Failed),
	)

	if iso.opts.Metrics != nil {
		iso.opts.Metrics.RecordRun(ctx, report.Duration)
	}

	if waitErr != nil {
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, "run aborted")

		return report, fmt.Errorf("isolate %s: %w", root, waitErr)
	}

	iso.opts.Logger.InfoContext(ctx, "isolation finished",
		"scanned", report.Scanned, "changed", report.Changed,
		"failed", report.Failed, "duration", report.Duration)

	return report, nil
}

// newReport drops the slots of files never started after a cancellation.
func newReport(root string, results []FileResult, dryRun bool, duration time.Duration) *Report {
	report := &Report{Root: root, DryRun: dryRun, Duration: duration}

	for _, res := range results {
		if res.Path == "" {
			continue
		}

		report.Results = append(report.Results, res)
		report.Scanned++
		report.BytesBefore += int64(res.SizeBefore)
		report.BytesAfter += int64(res.SizeAfter)

		switch {
		case res.Err != nil:
			report.Failed++
		case res.Changed:
			report.Changed++
		}
	}

	return report
}
