package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/nsisolate/pkg/config"
	"github.com/Sumatoshi-tech/nsisolate/pkg/relocate"
)

// ErrNamesKept is returned by check --strict when some name would be
// left in place.
var ErrNamesKept = errors.New("some names would not be relocated")

// CheckCommand holds the flags of the check command.
type CheckCommand struct {
	globals *GlobalOptions

	prefix    string
	vendorDir string
	strict    bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(globals *GlobalOptions) *cobra.Command {
	cc := &CheckCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "check <namespace-or-class>...",
		Short: "Show whether names would be relocated",
		Long: `Evaluate namespaces or fully qualified class names against the
configured namespace rules, the same way string literals are evaluated
during a run, and print where each one would end up.`,
		Args: cobra.MinimumNArgs(1),
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cc.prefix, "prefix", "p", "", "isolation prefix")
	flags.StringVar(&cc.vendorDir, "vendor-dir", "", "vendor directory holding composer/installed.json")
	flags.BoolVar(&cc.strict, "strict", false, "exit non-zero when any name would be kept")

	return cmd
}

func (cc *CheckCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cc.globals.ConfigPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("prefix") {
		cfg.Prefix = cc.prefix
	}

	if cc.vendorDir != "" {
		cfg.VendorDir = cc.vendorDir
	}

	err = cfg.ValidateForRun()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	providers, err := cc.globals.telemetry(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	checker, err := BuildChecker(ctx, cfg, providers.Logger)
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Name", "Decision", "Result"})

	kept := 0

	for _, name := range args {
		if relocate.IsCandidate(checker, name) {
			tbl.AppendRow(table.Row{name, color.GreenString("relocate"), relocate.Prefixed(cfg.Prefix, name)})

			continue
		}

		kept++

		tbl.AppendRow(table.Row{name, color.YellowString("keep"), name})
	}

	tbl.Render()

	if cc.strict && kept > 0 {
		return fmt.Errorf("%w: %d of %d", ErrNamesKept, kept, len(args))
	}

	return nil
}
