package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys.
const (
	logKeyService = "service"
	logKeyVersion = "version"
	logKeyPrefix  = "prefix"
	logKeyRoot    = "root"
	logKeyFile    = "file"
	logKeyTraceID = "trace_id"
	logKeySpanID  = "span_id"
)

// RunInfo identifies an isolation run.
type RunInfo struct {
	Version string
	Prefix  string
	Root    string
}

func (ri RunInfo) logAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String(logKeyService, serviceName)}

	for _, kv := range [][2]string{
		{logKeyVersion, ri.Version},
		{logKeyPrefix, ri.Prefix},
		{logKeyRoot, ri.Root},
	} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}

	return attrs
}

type fileKey struct{}

// WithFile returns a context whose log records name the PHP file being
// relocated.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey{}, path)
}

// FileFromContext returns the file set by WithFile.
func FileFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(fileKey{}).(string)

	return path, ok
}

// RunHandler is an [slog.Handler] that stamps every record with the run
// identity, the file carried by the context and the active span ids.
// Run attributes are attached up front and stay top level under WithGroup.
type RunHandler struct {
	inner slog.Handler
}

// NewRunHandler wraps inner with the attributes of run.
func NewRunHandler(inner slog.Handler, run RunInfo) *RunHandler {
	return &RunHandler{inner: inner.WithAttrs(run.logAttrs())}
}

// Enabled delegates to the inner handler.
func (h *RunHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the file and span attributes found in ctx.
func (h *RunHandler) Handle(ctx context.Context, record slog.Record) error {
	if path, ok := FileFromContext(ctx); ok {
		record.AddAttrs(slog.String(logKeyFile, path))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	return h.inner.Handle(ctx, record) //nolint:wrapcheck // handlers pass inner errors through
}

// WithAttrs implements [slog.Handler].
func (h *RunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RunHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h *RunHandler) WithGroup(name string) slog.Handler {
	return &RunHandler{inner: h.inner.WithGroup(name)}
}
