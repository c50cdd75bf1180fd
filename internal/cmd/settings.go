package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/templatize/internal/config"
)

// stdinIsTerminal reports whether prompts can be answered. Tests replace it.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// loadSettings loads the config file and applies global and command flags.
// Flags a command does not define are ignored.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		var err error
		configPath, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if verbose && quiet {
		return nil, usageErrorf("--verbose and --quiet cannot be combined")
	}

	var logLevel *string
	if verbose {
		level := "debug"
		logLevel = &level
	} else if quiet {
		level := "error"
		logLevel = &level
	}

	var workers *int
	if cmd.Flags().Changed("workers") {
		w, _ := cmd.Flags().GetInt("workers")
		workers = &w
	}

	var includeHidden *bool
	if cmd.Flags().Changed("include-hidden") {
		h, _ := cmd.Flags().GetBool("include-hidden")
		includeHidden = &h
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	cfg.MergeWithFlags(logLevel, workers, includeHidden, &noHistory)

	if err := cfg.Validate(); err != nil {
		return nil, &UsageError{Err: fmt.Errorf("invalid configuration: %w", err)}
	}
	return cfg, nil
}
