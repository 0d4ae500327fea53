package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/nsisolate/pkg/version"
)

// NewRootCommand creates the nsisolate root command with every subcommand.
func NewRootCommand() *cobra.Command {
	globals := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "nsisolate",
		Short: "Move Composer dependencies into a private PHP namespace",
		Long: `nsisolate rewrites the vendor directory of a PHP project so that every
bundled dependency lives under a private namespace prefix, letting several
copies of the same library coexist in one PHP process.

Commands:
  run       Relocate vendor namespaces in place
  check     Show whether names would be relocated
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globals.ConfigPath, "config", "c", "", "config file (default .nsisolate.yaml)")
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&globals.LogJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(NewRunCommand(globals))
	rootCmd.AddCommand(NewCheckCommand(globals))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
