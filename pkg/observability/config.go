// Package observability wires structured logging, tracing and metrics for
// nsisolate. Without an OTLP endpoint or a metrics textfile every provider
// is a no-op, so the CLI pays nothing for telemetry it does not export.
package observability

import (
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	serviceName            = "nsisolate"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds observability settings for one CLI invocation.
type Config struct {
	// Run identifies the isolation run on log records and the OTel resource.
	Run RunInfo

	// OTLPEndpoint enables OTLP gRPC export of traces and metrics.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC headers, e.g. for authentication.
	OTLPHeaders map[string]string

	// MetricsTextfile, when set, receives a Prometheus text exposition of
	// the run's metrics on Shutdown (node-exporter textfile collector format).
	MetricsTextfile string

	// LogOutput receives log records. Defaults to stderr.
	LogOutput io.Writer

	LogLevel        slog.Level
	SampleRatio     float64
	ShutdownTimeout time.Duration
	OTLPInsecure    bool
	LogJSON         bool
}

// DefaultConfig returns a configuration with no-op exporters and text logs
// on stderr at info level.
func DefaultConfig() Config {
	return Config{
		LogOutput:       os.Stderr,
		LogLevel:        slog.LevelInfo,
		SampleRatio:     1.0,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
