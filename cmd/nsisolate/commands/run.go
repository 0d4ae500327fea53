package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/nsisolate/pkg/config"
	"github.com/Sumatoshi-tech/nsisolate/pkg/filehash"
	"github.com/Sumatoshi-tech/nsisolate/pkg/isolate"
	"github.com/Sumatoshi-tech/nsisolate/pkg/observability"
)

// RunCommand holds the flags of the run command.
type RunCommand struct {
	globals *GlobalOptions

	prefix            string
	workers           int
	dryRun            bool
	diff              bool
	failFast          bool
	noColor           bool
	includeNamespaces []string
	excludeNamespaces []string
}

// NewRunCommand creates the run command.
func NewRunCommand(globals *GlobalOptions) *cobra.Command {
	rc := &RunCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "run [vendor-dir]",
		Short: "Relocate vendor namespaces under the isolation prefix",
		Long: `Rewrite every PHP source under the vendor directory so that the
namespaces of installed Composer packages move under the isolation prefix.

Namespaces are read from vendor/composer/installed.json and the
configuration. Files are rewritten in place unless --dry-run is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&rc.prefix, "prefix", "p", "", "isolation prefix, a PHP identifier such as MyPluginDeps")
	flags.IntVarP(&rc.workers, "workers", "w", 0, "number of parallel workers (0 = NumCPU)")
	flags.BoolVar(&rc.dryRun, "dry-run", false, "compute changes without writing files")
	flags.BoolVar(&rc.diff, "diff", false, "print a line diff of every changed file")
	flags.BoolVar(&rc.failFast, "fail-fast", false, "abort on the first file that fails")
	flags.BoolVar(&rc.noColor, "no-color", false, "disable colored output")
	flags.StringSliceVar(&rc.includeNamespaces, "include-namespace", nil, "additional namespace to relocate (repeatable)")
	flags.StringSliceVar(&rc.excludeNamespaces, "exclude-namespace", nil, "namespace to leave untouched (repeatable)")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(rc.globals.ConfigPath)
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg, args)

	err = cfg.ValidateForRun()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	providers, err := rc.globals.telemetry(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, runErr := rc.execute(ctx, cfg, providers)

	shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr != nil {
		providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", shutdownErr)
	}

	if report != nil {
		renderReport(cmd.OutOrStdout(), report, renderOptions{
			prefix: cfg.Prefix,
			diff:   rc.diff,
			quiet:  rc.globals.Quiet,
		})
	}

	return runErr
}

// applyFlags lets explicitly set flags override the loaded configuration.
func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.VendorDir = args[0]
	}

	if flags.Changed("prefix") {
		cfg.Prefix = rc.prefix
	}

	if flags.Changed("workers") {
		cfg.Workers = rc.workers
	}

	if flags.Changed("dry-run") {
		cfg.DryRun = rc.dryRun
	}

	if flags.Changed("fail-fast") {
		cfg.FailFast = rc.failFast
	}

	cfg.Namespaces.Include = append(cfg.Namespaces.Include, rc.includeNamespaces...)
	cfg.Namespaces.Exclude = append(cfg.Namespaces.Exclude, rc.excludeNamespaces...)
}

func (rc *RunCommand) execute(
	ctx context.Context, cfg *config.Config, providers observability.Providers,
) (*isolate.Report, error) {
	checker, err := BuildChecker(ctx, cfg, providers.Logger)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewRelocationMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	var rewriter filehash.Rewriter
	if cfg.Autoload.RewriteFileKeys {
		rewriter = filehash.KeyPrefix(cfg.Prefix)
	}

	iso, err := isolate.New(isolate.Options{
		Prefix:      cfg.Prefix,
		Checker:     checker,
		Rewriter:    rewriter,
		Logger:      providers.Logger,
		Tracer:      providers.Tracer,
		Metrics:     metrics,
		ExcludeDirs: cfg.ExcludeDirs,
		Workers:     cfg.Workers,
		DryRun:      cfg.DryRun,
		Diff:        rc.diff,
		FailFast:    cfg.FailFast,
	})
	if err != nil {
		return nil, err
	}

	report, err := iso.Run(ctx, cfg.VendorDir)

	providers.Logger.DebugContext(ctx, "namespace checker cache",
		"hits", checker.Hits(), "misses", checker.Misses())

	return report, err
}
