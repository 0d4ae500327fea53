// Package isolate drives namespace relocation over a vendor tree.
//
// An Isolator discovers PHP sources, parses each one, runs a fresh
// relocate.Visitor over it (plus the filehash.Patcher for Composer's static
// autoloader), and writes the reprinted source back atomically. Files are
// processed concurrently; the Checker is shared between workers.
package isolate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/nsisolate/pkg/filehash"
	"github.com/Sumatoshi-tech/nsisolate/pkg/nscheck"
	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
	"github.com/Sumatoshi-tech/nsisolate/pkg/relocate"
)

// AutoloadStaticFile is the basename of Composer's generated static autoloader.
const AutoloadStaticFile = "autoload_static.php"

// Sentinel errors.
var (
	ErrNoPrefix  = errors.New("isolate: prefix is required")
	ErrNoChecker = errors.New("isolate: namespace checker is required")
)

// Options configures an Isolator.
type Options struct {
	// Prefix is prepended to every relocated namespace.
	Prefix string

	// Checker decides which namespaces are relocated.
	Checker nscheck.Checker

	// Rewriter patches the files map of autoload_static.php. Nil disables
	// the patch.
	Rewriter filehash.Rewriter

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.RelocationMetrics

	// ExcludeDirs are directory basenames never descended into, on top of
	// the VCS directories.
	ExcludeDirs []string

	// Workers bounds concurrent file processing. Zero means runtime.NumCPU().
	Workers int

	// DryRun computes results without writing files.
	DryRun bool

	// Diff attaches a line diff of every changed file to its result.
	Diff bool

	// FailFast aborts the run on the first file failure.
	FailFast bool
}

// Isolator relocates namespaces in PHP files.
type Isolator struct {
	opts   Options
	parser *phpast.Parser
}

// New creates an Isolator, filling unset observability options with no-ops.
func New(opts Options) (*Isolator, error) {
	if opts.Prefix == "" {
		return nil, ErrNoPrefix
	}

	if opts.Checker == nil {
		return nil, ErrNoChecker
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Isolator{opts: opts, parser: phpast.NewParser()}, nil
}

// Workers returns the effective worker count.
func (iso *Isolator) Workers() int {
	return iso.opts.Workers
}

// Transform relocates a single source held in memory. It returns the
// rewritten source and whether it differs from src. filename is used for
// error positions and to recognize the static autoloader.
func (iso *Isolator) Transform(ctx context.Context, filename string, src []byte) ([]byte, bool, error) {
	file, err := iso.parser.Parse(ctx, filename, src)
	if err != nil {
		return nil, false, fmt.Errorf("parse: %w", err)
	}

	visitor := relocate.NewVisitor(iso.opts.Prefix, iso.opts.Checker)
	visitor.Visit(file)

	transformed := visitor.DidTransform()

	if iso.opts.Rewriter != nil && filepath.Base(filename) == AutoloadStaticFile {
		patcher := filehash.NewPatcher(iso.opts.Rewriter)
		patcher.Visit(file)

		transformed = transformed || patcher.DidTransform()
	}

	if !transformed {
		return src, false, nil
	}

	out := phpast.Print(file)

	return out, !bytes.Equal(out, src), nil
}
