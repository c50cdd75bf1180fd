package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for templatize
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templatize",
		Short: "Convert existing projects into Jinja2 templates",
		Long: `Templatize turns an existing project into a reusable Jinja2 template.

It replaces a token in file and directory names and in file contents with
a Jinja2 expression, either literally (exact) or in every case shape of a
compound word (shapes), and escapes Jinja2 syntax already present in files
(escape).`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once and picks the exit code
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug output and per-file progress")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only show errors")
	cmd.PersistentFlags().String("config", "", "Path to config file (default: $TEMPLATIZE_HOME/config.yaml)")
	cmd.PersistentFlags().Bool("no-history", false, "Do not record this run in the history database")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	// Add subcommands
	cmd.AddCommand(NewExactCommand())
	cmd.AddCommand(NewShapesCommand())
	cmd.AddCommand(NewEscapeCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
