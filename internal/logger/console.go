// Package logger provides the leveled console logger used by templatize runs.
//
// Messages are prefixed with [HH:MM:SS] timestamps and filtered by level.
// Implementations are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/templatize/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// It supports log level filtering to control message verbosity.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
// NO_COLOR (via color.NoColor) disables colors everywhere.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if IsValidLevel(normalized) {
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level names a known log level.
func IsValidLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		level = colorLevel(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogChange logs a committed or previewed change at INFO level.
// Dry runs read "Would rename ..." / "Would update ...".
func (cl *ConsoleLogger) LogChange(rec models.ChangeRecord, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "Would "
	}

	if rec.Kind == models.KindPath {
		verb := "Renamed"
		if dryRun {
			verb = "rename"
		}
		cl.LogInfo(fmt.Sprintf("%s%s %s -> %s", prefix, verb, rec.Location.Path, renamedPath(rec)))
		return
	}

	verb := "Updated"
	if dryRun {
		verb = "update"
	}
	cl.LogInfo(fmt.Sprintf("%s%s %s:%d:%d %q -> %q", prefix, verb, rec.Location.Path, rec.Location.Line, rec.Location.Column, rec.Before, rec.After))
}

// LogSummary writes the end-of-run summary. It is printed regardless of
// level unless the logger is at error level.
func (cl *ConsoleLogger) LogSummary(result *models.RunResult) {
	if cl.writer == nil || result == nil || !cl.shouldLog("warn") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := func(s string) string { return s }
	if cl.colorOutput {
		label = func(s string) string { return color.New(color.FgCyan).Sprint(s) }
	}

	var b strings.Builder
	title := "Summary"
	if result.Mode == models.ModeDryRun {
		title = "Summary (dry run, nothing written)"
	}
	fmt.Fprintf(&b, "\n%s:\n", title)
	fmt.Fprintf(&b, "  %s: %d\n", label("Files processed"), result.FilesProcessed)
	fmt.Fprintf(&b, "  %s: %d\n", label("Paths renamed"), result.PathsRenamed)
	fmt.Fprintf(&b, "  %s: %d\n", label("Content changes"), result.ContentChanges)
	if result.Declined > 0 {
		fmt.Fprintf(&b, "  %s: %d\n", label("Declined"), result.Declined)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(&b, "  %s: %d\n", label("Skipped"), result.Skipped)
	}
	if result.Quit {
		fmt.Fprintf(&b, "  Stopped early at user request\n")
	}
	if result.Duration > 0 {
		fmt.Fprintf(&b, "  %s: %s\n", label("Duration"), formatDuration(result.Duration))
	}
	if result.RunID != "" {
		fmt.Fprintf(&b, "  %s: %s\n", label("Run ID"), result.RunID)
	}

	io.WriteString(cl.writer, b.String())
}

func renamedPath(rec models.ChangeRecord) string {
	dir := rec.Location.Path[:len(rec.Location.Path)-len(rec.Before)]
	return dir + rec.After
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration formats a duration for the summary, e.g. "1.2s" or "1m5s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that does nothing.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                     {}
func (n *NoOpLogger) LogDebug(string)                     {}
func (n *NoOpLogger) LogInfo(string)                      {}
func (n *NoOpLogger) LogWarn(string)                      {}
func (n *NoOpLogger) LogError(string)                     {}
func (n *NoOpLogger) LogChange(models.ChangeRecord, bool) {}
func (n *NoOpLogger) LogSummary(*models.RunResult)        {}
