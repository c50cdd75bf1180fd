package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/templatize/internal/display"
	"github.com/harrison/templatize/internal/history"
	"github.com/harrison/templatize/internal/models"
)

// NewHistoryCommand creates the 'templatize history' command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded templatize runs",
		Long: `Inspect the runs recorded in the history database and the changes each
one committed. Dry runs are recorded without changes.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			printRunList(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its committed changes",
		Long: `Show a run and every change it committed. The run ID may be abbreviated
to any unique prefix.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			changes, err := store.GetChanges(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("get changes: %w", err)
			}
			printRun(cmd.OutOrStdout(), run, changes)
			return nil
		},
	}
}

func newHistoryClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()

			if !yes {
				if !stdinIsTerminal() {
					return usageErrorf("refusing to clear history without --yes on a non-interactive terminal")
				}
				prompter := display.NewPrompter(cmd.InOrStdin(), output)
				ok, err := prompter.YesNo("Delete all recorded runs?", false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(output, "Operation cancelled.")
					return nil
				}
			}

			store, err := openHistory(cmd)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(output, "Deleted %d %s\n", n, plural(int(n), "run", "runs"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// openHistory opens the configured history database. It prints a notice
// and returns a nil store when nothing has been recorded yet.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func printRunList(w io.Writer, runs []*history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%-8s  %-19s  %-7s  %-11s  %7s  %7s  %s\n", "ID", "STARTED", "COMMAND", "MODE", "RENAMED", "CHANGED", "TARGET")
	for _, r := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  %-7s  %-11s  %7d  %7d  %s\n",
			shortID(r.ID), formatTimestamp(r.StartedAt), r.Command, r.Mode,
			r.PathsRenamed, r.ContentChanges, r.Target)
	}
}

func printRun(w io.Writer, run *history.Run, changes []*history.Change) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	cyan.Fprintf(w, "\n=== Run %s ===\n\n", run.ID)
	fmt.Fprintf(w, "  Command: %s\n", describeCommand(run))
	fmt.Fprintf(w, "  Target: %s\n", run.Target)
	fmt.Fprintf(w, "  Mode: %s\n", run.Mode)
	fmt.Fprintf(w, "  Started: %s ", formatTimestamp(run.StartedAt))
	gray.Fprintf(w, "(%s ago)\n", formatAge(time.Since(run.StartedAt)))
	if run.FinishedAt == nil {
		fmt.Fprintf(w, "  Finished: never\n")
	} else {
		fmt.Fprintf(w, "  Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "  Files processed: %d\n", run.FilesProcessed)
	fmt.Fprintf(w, "  Paths renamed: %d\n", run.PathsRenamed)
	fmt.Fprintf(w, "  Content changes: %d\n", run.ContentChanges)
	if run.Declined > 0 {
		fmt.Fprintf(w, "  Declined: %d\n", run.Declined)
	}
	if run.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped: %d\n", run.Skipped)
	}

	if len(changes) == 0 {
		fmt.Fprintln(w, "\nNo committed changes.")
		return
	}

	cyan.Fprintf(w, "\nChanges (%d):\n", len(changes))
	for _, c := range changes {
		if c.Kind == models.KindPath {
			fmt.Fprintf(w, "  rename %s\n", c.Path)
			red.Fprintf(w, "    - %s\n", c.Before)
			green.Fprintf(w, "    + %s\n", c.After)
			continue
		}
		fmt.Fprintf(w, "  %s:%d ", c.Path, c.Line)
		red.Fprintf(w, "%q", c.Before)
		fmt.Fprint(w, " -> ")
		green.Fprintf(w, "%q\n", c.After)
	}
}

func describeCommand(run *history.Run) string {
	if run.Token == "" {
		return run.Command
	}
	return fmt.Sprintf("%s %q %q", run.Command, run.Token, run.Replacement)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTimestamp formats a time in local time, e.g. "2006-01-02 15:04:05"
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatAge formats an elapsed duration coarsely, e.g. "5m" or "3d"
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
