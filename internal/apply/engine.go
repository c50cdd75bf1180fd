// Package apply walks a target tree, asks the transform engine for change
// records and commits, previews or discards them.
package apply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harrison/templatize/internal/display"
	"github.com/harrison/templatize/internal/filelock"
	"github.com/harrison/templatize/internal/fileutil"
	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/transform"
)

// Mode selects what happens to planned changes.
type Mode int

const (
	ModeDirect      Mode = iota // Write every change
	ModeDryRun                  // Log changes, write nothing
	ModeInteractive             // Ask before each file and rename
)

func (m Mode) String() string {
	switch m {
	case ModeDryRun:
		return models.ModeDryRun
	case ModeInteractive:
		return models.ModeInteractive
	default:
		return models.ModeDirect
	}
}

// Logger is the subset of logger.ConsoleLogger used by runs.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogChange(rec models.ChangeRecord, dryRun bool)
}

// Confirmer answers interactive prompts. display.Prompter implements it.
type Confirmer interface {
	ConfirmContent(path, before, after string, changes int) (models.Decision, error)
	ConfirmSpan(rec models.ChangeRecord, lineBefore, lineAfter string) (models.Decision, error)
	ConfirmRename(oldPath, newPath string) (models.Decision, error)
}

// Options configures a run.
type Options struct {
	Target      string
	Transform   transform.Options
	Mode        Mode
	Confirmer   Confirmer // Required for ModeInteractive
	Scan        fileutil.ScanOptions
	MaxFileSize int64 // 0 = unlimited
	Workers     int   // Planning goroutines, 1 = sequential
	LockDir     string
	RenameRoot  bool      // Also rename the target directory itself
	Warnings    io.Writer // Destination for display warnings, nil to drop
	Progress    io.Writer // Per-file progress lines, nil to disable
}

// runner holds the state of one run.
type runner struct {
	eng    *transform.Engine
	opts   Options
	log    Logger
	root   string
	mode   Mode
	result *models.RunResult

	dirs           map[string]models.ChangeRecord
	alreadyEscaped []string
	progress       *display.ProgressIndicator
}

// Run applies eng to opts.Target. On ErrQuit the returned result describes
// what was committed before the user stopped.
func Run(ctx context.Context, eng *transform.Engine, opts Options, log Logger) (*models.RunResult, error) {
	if opts.Mode == ModeInteractive && opts.Confirmer == nil {
		return nil, fmt.Errorf("interactive mode requires a confirmer")
	}

	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("resolve target: %w", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("access target: %w", err)
	}

	if opts.LockDir != "" {
		lock, err := filelock.AcquireRunLock(opts.LockDir, target)
		if errors.Is(err, filelock.ErrHeld) {
			return nil, fmt.Errorf("%s: %w", opts.Target, ErrLocked)
		}
		if err != nil {
			return nil, err
		}
		defer lock.Unlock()
	}

	r := &runner{
		eng:    eng,
		opts:   opts,
		log:    log,
		mode:   opts.Mode,
		result: &models.RunResult{Mode: opts.Mode.String()},
		dirs:   make(map[string]models.ChangeRecord),
	}
	start := time.Now()

	var files, dirs []string
	if info.IsDir() {
		scan, err := fileutil.ScanTree(target, opts.Scan)
		if err != nil {
			return nil, err
		}
		for _, e := range scan.Errors {
			log.LogWarn(e.Error())
		}
		r.root, files, dirs = scan.Root, scan.Files, scan.Dirs
	} else {
		r.root, files = filepath.Dir(target), []string{filepath.Base(target)}
	}
	log.LogDebug(fmt.Sprintf("Found %d files and %d directories under %s", len(files), len(dirs), target))
	if opts.Progress != nil {
		r.progress = display.NewProgressIndicator(opts.Progress, len(files))
		r.progress.Start(target)
	}

	err = r.processFiles(ctx, files)
	if err == nil && opts.Transform.IncludePaths {
		err = r.renameDirs(dirs)
		if err == nil && info.IsDir() && opts.RenameRoot {
			err = r.renameRoot()
		}
	}

	if err == nil && r.progress != nil {
		r.progress.Complete()
	}
	r.result.Duration = time.Since(start)
	r.result.Quit = errors.Is(err, ErrQuit)
	r.warn()

	return r.result, err
}

func (r *runner) processFiles(ctx context.Context, files []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, release := planAll(ctx, r.eng, r.root, files, r.opts)
	for i := range files {
		var p filePlan
		select {
		case p = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		release()

		if err := r.commitFile(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) commitFile(p filePlan) error {
	r.result.FilesProcessed++
	if r.progress != nil {
		r.progress.Step(p.rel)
	}
	if p.err != nil {
		return p.err
	}
	if p.skipped != "" {
		r.result.Skipped++
		r.log.LogDebug(fmt.Sprintf("Skipping contents of %s: %s", p.rel, p.skipped))
	}
	if p.escaped {
		r.alreadyEscaped = append(r.alreadyEscaped, p.rel)
		r.log.LogWarn(fmt.Sprintf("%s already contains escaped delimiters", p.rel))
	}
	for _, d := range p.dirs {
		r.dirs[d.Location.Path] = d
	}

	if len(p.spans) > 0 {
		if err := r.commitContent(p); err != nil {
			return err
		}
	}
	if p.rename != nil {
		return r.rename(*p.rename, p.abs)
	}
	return nil
}

func (r *runner) commitContent(p filePlan) error {
	accepted, err := r.acceptSpans(p)
	if err != nil || len(accepted) == 0 {
		return err
	}

	r.result.ContentChanges++
	if r.mode == ModeDryRun {
		for _, s := range accepted {
			r.log.LogChange(s, true)
		}
		return nil
	}

	updated := models.ApplySpans(p.content, accepted)
	if err := filelock.ReplaceFile(p.abs, []byte(updated)); err != nil {
		return fmt.Errorf("write %s: %w", p.rel, err)
	}
	r.result.Committed = append(r.result.Committed, accepted...)
	r.log.LogInfo(fmt.Sprintf("Updated %s (%d %s)", p.rel, len(accepted), plural(len(accepted), "change", "changes")))
	for _, s := range accepted {
		r.log.LogDebug(fmt.Sprintf("  %d:%d %q -> %q", s.Location.Line, s.Location.Column, s.Before, s.After))
	}
	return nil
}

// acceptSpans returns the spans of p the user (or mode) accepts.
func (r *runner) acceptSpans(p filePlan) ([]models.ChangeRecord, error) {
	if r.mode != ModeInteractive {
		return p.spans, nil
	}

	updated := models.ApplySpans(p.content, p.spans)
	decision, err := r.opts.Confirmer.ConfirmContent(p.rel, p.content, updated, len(p.spans))
	if err != nil {
		return nil, err
	}

	switch decision {
	case models.DecisionAccept:
		return p.spans, nil
	case models.DecisionAcceptAll:
		r.mode = ModeDirect
		return p.spans, nil
	case models.DecisionDecline:
		r.result.Declined += len(p.spans)
		return nil, nil
	case models.DecisionQuit:
		return nil, ErrQuit
	}

	// Decide each change.
	var accepted []models.ChangeRecord
	for i, s := range p.spans {
		before, after := lineContext(p.content, s)
		d, err := r.opts.Confirmer.ConfirmSpan(s, before, after)
		if err != nil {
			return nil, err
		}
		switch d {
		case models.DecisionAccept:
			accepted = append(accepted, s)
		case models.DecisionAcceptAll:
			r.mode = ModeDirect
			return append(accepted, p.spans[i:]...), nil
		case models.DecisionQuit:
			return nil, ErrQuit
		default:
			r.result.Declined++
		}
	}
	return accepted, nil
}

// rename renames the entry at abs as described by rec.
func (r *runner) rename(rec models.ChangeRecord, abs string) error {
	newAbs := filepath.Join(filepath.Dir(abs), rec.After)
	newRel := path.Join(parentOf(rec.Location.Path), rec.After)

	if strings.ContainsRune(rec.After, '/') || strings.ContainsRune(rec.After, filepath.Separator) {
		r.log.LogWarn(fmt.Sprintf("Not renaming %s: %q contains a path separator", rec.Location.Path, rec.After))
		r.result.Skipped++
		return nil
	}

	if r.mode == ModeInteractive {
		d, err := r.opts.Confirmer.ConfirmRename(rec.Location.Path, newRel)
		if err != nil {
			return err
		}
		switch d {
		case models.DecisionQuit:
			return ErrQuit
		case models.DecisionDecline:
			r.result.Declined++
			return nil
		case models.DecisionAcceptAll:
			r.mode = ModeDirect
		}
	}

	if r.mode == ModeDryRun {
		r.result.PathsRenamed++
		r.log.LogChange(rec, true)
		return nil
	}

	if _, err := os.Lstat(newAbs); err == nil {
		r.log.LogWarn(fmt.Sprintf("Not renaming %s: %s already exists", rec.Location.Path, newRel))
		r.result.Skipped++
		return nil
	}
	if err := os.Rename(abs, newAbs); err != nil {
		return fmt.Errorf("rename %s: %w", rec.Location.Path, err)
	}

	r.result.PathsRenamed++
	r.result.Committed = append(r.result.Committed, rec)
	r.log.LogChange(rec, false)
	return nil
}

// renameDirs renames directories deepest first so every rename happens
// after its descendants have been processed and while its parent still has
// its original name.
func (r *runner) renameDirs(all []string) error {
	for _, d := range all {
		if _, ok := r.dirs[d]; ok {
			continue
		}
		if rec, ok := r.eng.PlanDir(d); ok {
			r.dirs[d] = rec
		}
	}

	ordered := make([]models.ChangeRecord, 0, len(r.dirs))
	for _, rec := range r.dirs {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Location.Depth != ordered[j].Location.Depth {
			return ordered[i].Location.Depth > ordered[j].Location.Depth
		}
		return ordered[i].Location.Path > ordered[j].Location.Path
	})

	for _, rec := range ordered {
		abs := filepath.Join(r.root, filepath.FromSlash(rec.Location.Path))
		if err := r.rename(rec, abs); err != nil {
			return err
		}
	}
	return nil
}

// renameRoot renames the target directory itself, last.
func (r *runner) renameRoot() error {
	name := filepath.Base(r.root)
	renamed, ok := r.eng.TransformSegment(name)
	if !ok || renamed == name {
		return nil
	}
	rec := models.ChangeRecord{
		Kind:     models.KindPath,
		Location: models.Location{Path: name, IsDir: true},
		Before:   name,
		After:    renamed,
		Rule:     r.eng.Command().Kind.String(),
	}
	return r.rename(rec, r.root)
}

func (r *runner) warn() {
	if r.opts.Warnings == nil {
		return
	}
	if len(r.alreadyEscaped) > 0 {
		display.WarnAlreadyEscaped(r.alreadyEscaped).Display(r.opts.Warnings)
	}
	if !r.result.Changed() && r.result.Declined == 0 && !r.result.Quit {
		display.WarnNoMatches(r.eng.Command().Token).Display(r.opts.Warnings)
	}
}

// lineContext returns the line(s) holding s before and after replacement.
func lineContext(content string, s models.ChangeRecord) (string, string) {
	start := strings.LastIndex(content[:s.Location.Offset], "\n") + 1
	end := len(content)
	if i := strings.Index(content[s.End():], "\n"); i >= 0 {
		end = s.End() + i
	}
	before := content[start:end]
	after := content[start:s.Location.Offset] + s.After + content[s.End():end]
	return before, after
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
