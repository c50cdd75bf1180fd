package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/templatize/internal/apply"
	"github.com/harrison/templatize/internal/config"
	"github.com/harrison/templatize/internal/display"
	"github.com/harrison/templatize/internal/fileutil"
	"github.com/harrison/templatize/internal/history"
	"github.com/harrison/templatize/internal/logger"
	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/transform"
)

// NewExactCommand creates the 'templatize exact' command
func NewExactCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exact <token> <replacement> [target]",
		Short: "Replace an exact token with Jinja2 syntax",
		Long: `Replace every standalone occurrence of token with replacement, verbatim.

A match must not be part of a longer identifier: replacing "MyCompany"
leaves "MyCompanyApp" alone.

Examples:
  templatize exact MyCompany '{{ company_name }}' -c
  templatize exact example-name '{{ project-name }}' ./project -p -c --dry-run`,
		Args: usageArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, transform.Exact(args[0], args[1]), targetArg(args, 2))
		},
	}
	addTransformFlags(cmd, true)
	return cmd
}

// NewShapesCommand creates the 'templatize shapes' command
func NewShapesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shapes <token> <replacement> [target]",
		Short: "Replace a compound word in every case shape",
		Long: `Replace a compound word in each of its case shapes with the matching
shape of the replacement identifier.

For token "my-project" and replacement "{{ project_name }}":
  my-project   -> {{ project-name }}
  myProject    -> {{ projectName }}
  MyProject    -> {{ ProjectName }}
  my_project   -> {{ project_name }}
  MY_PROJECT   -> {{ PROJECT_NAME }}
  My-Project   -> {{ Project-Name }}
  MY-PROJECT   -> {{ PROJECT-NAME }}

The token must contain at least two words, e.g. "my-project" or "MyProject".

Examples:
  templatize shapes my-project '{{ project_name }}' -p -c
  templatize shapes my-project '{{ cookiecutter.project_slug }}' ./repo -i`,
		Args: usageArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, transform.Shapes(args[0], args[1]), targetArg(args, 2))
		},
	}
	addTransformFlags(cmd, true)
	return cmd
}

// NewEscapeCommand creates the 'templatize escape' command
func NewEscapeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escape [target]",
		Short: "Escape Jinja2 syntax in file contents",
		Long: `Escape existing Jinja2 delimiters ({{, {% and {#) in file contents so a
template engine renders them literally. File names are never changed.

Run escape before exact or shapes: escaping a tree twice corrupts the
escapes from the first run.

Examples:
  templatize escape ./project
  templatize escape templates/page.html --dry-run`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, transform.Escape(), targetArg(args, 0))
		},
	}
	addTransformFlags(cmd, false)
	return cmd
}

func addTransformFlags(cmd *cobra.Command, selectable bool) {
	if selectable {
		cmd.Flags().BoolP("path", "p", false, "Templatize file and directory names")
		cmd.Flags().BoolP("contents", "c", false, "Templatize file contents")
		cmd.Flags().Bool("rename-root", false, "Also rename the target directory itself")
	}
	cmd.Flags().Bool("dry-run", false, "Show what would change without writing anything")
	cmd.Flags().BoolP("interactive", "i", false, "Confirm each file and rename")
	cmd.Flags().Int("workers", 0, "Files planned in parallel (default from config)")
	cmd.Flags().Bool("include-hidden", false, "Descend into hidden directories")
}

func targetArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}

// runTransform validates the invocation, runs tc against target and
// records the run in history.
func runTransform(cmd *cobra.Command, tc transform.Command, target string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	interactive, _ := cmd.Flags().GetBool("interactive")
	renameRoot, _ := cmd.Flags().GetBool("rename-root")
	if dryRun && interactive {
		return usageErrorf("--dry-run and --interactive cannot be combined")
	}

	eng, err := transform.New(tc)
	if err != nil {
		return err
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}
	info, err := os.Stat(absTarget)
	if os.IsNotExist(err) {
		return usageErrorf("target does not exist: %s", target)
	}
	if err != nil {
		return fmt.Errorf("access target: %w", err)
	}
	if tc.Kind != transform.CommandEscape && !info.IsDir() {
		return usageErrorf("target must be a directory: %s", target)
	}

	terminal := stdinIsTerminal()
	if interactive && !terminal {
		return usageErrorf("--interactive requires a terminal")
	}
	prompter := display.NewPrompter(cmd.InOrStdin(), out)

	selection, err := selectChanges(cmd, tc, prompter, terminal)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(out, cfg.LogLevel)
	log.LogDebug(fmt.Sprintf("Target: %s", absTarget))
	log.LogDebug(fmt.Sprintf("Path templating: %t, contents templating: %t", selection.IncludePaths, selection.IncludeContents))

	lockDir, err := config.GetLockDir()
	if err != nil {
		return err
	}

	opts := apply.Options{
		Target:    absTarget,
		Transform: selection,
		Mode:      apply.ModeDirect,
		Scan: fileutil.ScanOptions{
			ExcludeDirs:   cfg.ExcludeDirs,
			IncludeHidden: cfg.IncludeHidden,
		},
		MaxFileSize: int64(cfg.MaxFileSize),
		Workers:     cfg.Workers,
		LockDir:     lockDir,
		RenameRoot:  renameRoot,
		Warnings:    cmd.ErrOrStderr(),
	}
	switch {
	case dryRun:
		opts.Mode = apply.ModeDryRun
	case interactive:
		opts.Mode = apply.ModeInteractive
		opts.Confirmer = prompter
	}
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		opts.Progress = cmd.ErrOrStderr()
	}

	ctx := context.Background()
	started := time.Now().UTC()
	result, runErr := apply.Run(ctx, eng, opts, log)
	if result == nil {
		return runErr
	}

	if cfg.History.Enabled {
		runID, err := recordRun(ctx, cfg, tc, absTarget, started, result)
		if err != nil {
			log.LogWarn(fmt.Sprintf("Run not recorded in history: %v", err))
		}
		result.RunID = runID
	}

	log.LogSummary(result)

	if errors.Is(runErr, apply.ErrQuit) {
		return nil
	}
	return runErr
}

// selectChanges decides whether paths and contents are templatized. Escape
// only ever touches contents. With neither flag set, a terminal user is
// asked and a non-terminal run enables both.
func selectChanges(cmd *cobra.Command, tc transform.Command, prompter *display.Prompter, terminal bool) (transform.Options, error) {
	if tc.Kind == transform.CommandEscape {
		return transform.Options{IncludeContents: true}, nil
	}

	paths, _ := cmd.Flags().GetBool("path")
	contents, _ := cmd.Flags().GetBool("contents")
	if paths || contents {
		return transform.Options{IncludePaths: paths, IncludeContents: contents}, nil
	}
	if !terminal {
		return transform.Options{IncludePaths: true, IncludeContents: true}, nil
	}

	var err error
	if paths, err = prompter.YesNo("Enable path templating (-p)?", true); err != nil {
		return transform.Options{}, err
	}
	if contents, err = prompter.YesNo("Enable contents templating (-c)?", true); err != nil {
		return transform.Options{}, err
	}
	if !paths && !contents {
		return transform.Options{}, usageErrorf("at least one of --path (-p) or --contents (-c) must be enabled")
	}
	return transform.Options{IncludePaths: paths, IncludeContents: contents}, nil
}

// recordRun stores the run and its committed changes, returning the run ID.
func recordRun(ctx context.Context, cfg *config.Config, tc transform.Command, target string, started time.Time, result *models.RunResult) (string, error) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return "", err
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run := &history.Run{
		Command:     tc.Kind.String(),
		Token:       tc.Token,
		Replacement: tc.Replacement,
		Target:      target,
		Mode:        result.Mode,
		StartedAt:   started,
	}
	if err := store.StartRun(ctx, run); err != nil {
		return "", err
	}
	if err := store.RecordChanges(ctx, run.ID, result.Committed); err != nil {
		return run.ID, err
	}
	if err := store.FinishRun(ctx, run.ID, result); err != nil {
		return run.ID, err
	}
	return run.ID, nil
}
