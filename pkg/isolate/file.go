package isolate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
)

// Failure stages, reported in metrics and logs.
const (
	stageRead  = "read"
	stageParse = "parse"
	stageWrite = "write"
)

const tmpPattern = ".nsisolate-*.tmp"

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path       string
	Diff       string
	Err        error
	SizeBefore int
	SizeAfter  int
	Duration   time.Duration
	Changed    bool
}

// Status returns the metrics status of the result.
func (r FileResult) Status() string {
	switch {
	case r.Err != nil:
		return observability.StatusFailed
	case r.Changed:
		return observability.StatusChanged
	default:
		return observability.StatusUnchanged
	}
}

// ProcessFile relocates a single file on disk. Unless running dry, a
// changed file is replaced atomically and keeps its permission bits.
// The returned error is also stored in the result.
func (iso *Isolator) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	ctx, span := iso.opts.Tracer.Start(ctx, "nsisolate.file",
		trace.WithAttributes(attribute.String("file.path", path)),
	)
	defer span.End()

	if iso.opts.Metrics != nil {
		defer iso.opts.Metrics.TrackInflight(ctx)()
	}

	start := time.Now()
	result, stage, err := iso.processFile(ctx, path)
	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Bool("file.changed", result.Changed),
		attribute.Int("file.size", result.SizeBefore),
	)

	if iso.opts.Metrics != nil {
		iso.opts.Metrics.RecordFile(ctx, result.Status(), result.Duration)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)

		if iso.opts.Metrics != nil {
			iso.opts.Metrics.RecordError(ctx, stage)
		}

		return result, err
	}

	if _, ok := observability.FileFromContext(ctx); !ok {
		ctx = observability.WithFile(ctx, path)
	}

	iso.opts.Logger.DebugContext(ctx, "file processed",
		"changed", result.Changed, "duration", result.Duration)

	return result, nil
}

func (iso *Isolator) processFile(ctx context.Context, path string) (FileResult, string, error) {
	result := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = fmt.Errorf("stat %s: %w", path, err)

		return result, stageRead, result.Err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", path, err)

		return result, stageRead, result.Err
	}

	result.SizeBefore = len(src)
	result.SizeAfter = len(src)

	out, changed, err := iso.Transform(ctx, path, src)
	if err != nil {
		result.Err = err

		return result, stageParse, err
	}

	if !changed {
		return result, "", nil
	}

	result.Changed = true
	result.SizeAfter = len(out)

	if iso.opts.Diff {
		result.Diff = LineDiff(path, src, out)
	}

	if iso.opts.DryRun {
		return result, "", nil
	}

	err = writeAtomic(path, out, info.Mode().Perm())
	if err != nil {
		result.Err = err

		return result, stageWrite, err
	}

	return result, "", nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	fd, err := os.CreateTemp(filepath.Dir(path), tmpPattern)
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}

	tmpPath := fd.Name()

	_, writeErr := fd.Write(data)
	if writeErr == nil {
		writeErr = fd.Sync()
	}

	if writeErr == nil {
		writeErr = fd.Chmod(perm)
	}

	closeErr := fd.Close()

	err = errors.Join(writeErr, closeErr)
	if err != nil {
		removeErr := os.Remove(tmpPath)

		return errors.Join(fmt.Errorf("write %s: %w", path, err), removeErr)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		removeErr := os.Remove(tmpPath)

		return errors.Join(fmt.Errorf("replace %s: %w", path, err), removeErr)
	}

	return nil
}

// IsSyntaxError reports whether err is a PHP parse failure rather than an
// I/O failure.
func IsSyntaxError(err error) bool {
	return errors.Is(err, phpast.ErrSyntax)
}
