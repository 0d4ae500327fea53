// Package commands implements CLI command handlers for nsisolate.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/nsisolate/pkg/config"
	"github.com/Sumatoshi-tech/nsisolate/pkg/nscheck"
	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
	"github.com/Sumatoshi-tech/nsisolate/pkg/version"
)

// ErrNoNamespaces is returned when neither Composer metadata nor the
// configuration names a namespace to relocate.
var ErrNoNamespaces = errors.New("no namespaces to isolate: installed.json not found and no include rules configured")

// GlobalOptions holds the persistent root flags.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

func (g *GlobalOptions) logLevel(cfg *config.Config) slog.Level {
	switch {
	case g.Verbose:
		return slog.LevelDebug
	case g.Quiet:
		return slog.LevelWarn
	default:
		return cfg.LogLevel()
	}
}

// telemetry starts logging, tracing and metrics for one command invocation.
func (g *GlobalOptions) telemetry(cfg *config.Config, logOutput io.Writer) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.Run = observability.RunInfo{
		Version: version.Version,
		Prefix:  cfg.Prefix,
		Root:    cfg.VendorDir,
	}
	obsCfg.LogOutput = logOutput
	obsCfg.LogLevel = g.logLevel(cfg)
	obsCfg.LogJSON = g.LogJSON || cfg.Logging.Format == config.LogFormatJSON
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init telemetry: %w", err)
	}

	return providers, nil
}

// BuildChecker assembles the namespace checker for cfg:
// namespaces autoloaded by installed packages and the configured includes
// and patterns, minus the configured exclusions, the root project's own
// namespaces and anything already under the prefix. The result is memoized.
func BuildChecker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*nscheck.Memo, error) {
	installed, err := nscheck.ReadInstalled(cfg.InstalledPath(), cfg.Packages.Exclude)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		logger.WarnContext(ctx, "installed.json not found, using configured namespaces only",
			"path", cfg.InstalledPath())
	}

	exclusions := slices.Clone(cfg.Namespaces.Exclude)

	if cfg.ComposerJSON != "" {
		own, rootErr := nscheck.ReadComposerJSON(cfg.ComposerJSON)

		switch {
		case rootErr == nil:
			exclusions = append(exclusions, own...)
		case !errors.Is(rootErr, fs.ErrNotExist):
			return nil, rootErr
		}
	}

	includes := slices.Concat(installed, cfg.Namespaces.Include)
	if len(includes) == 0 && len(cfg.Namespaces.Patterns) == 0 {
		return nil, ErrNoNamespaces
	}

	members := []nscheck.Checker{
		nscheck.NewPolicy(
			nscheck.WithIsolationPrefix(cfg.Prefix),
			nscheck.WithPrefixes(includes...),
		),
	}

	if len(cfg.Namespaces.Patterns) > 0 {
		pattern, patternErr := nscheck.NewPattern(cfg.Namespaces.Patterns...)
		if patternErr != nil {
			return nil, patternErr
		}

		members = append(members, pattern)
	}

	veto := nscheck.NewPolicy(nscheck.WithPrefixes(append(exclusions, cfg.Prefix)...))

	logger.DebugContext(ctx, "namespace checker ready",
		"installed", len(installed), "includes", len(cfg.Namespaces.Include),
		"patterns", len(cfg.Namespaces.Patterns), "exclusions", len(exclusions))

	return nscheck.NewMemo(nscheck.Except(nscheck.Any(members...), veto)), nil
}
