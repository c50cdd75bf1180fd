package models

import "time"

// Run modes recorded in history
const (
	ModeDirect      = "direct"
	ModeDryRun      = "dry-run"
	ModeInteractive = "interactive"
)

// Decision is a user's answer to a confirmation prompt.
type Decision int

const (
	DecisionAccept    Decision = iota // Apply this change
	DecisionDecline                   // Skip this change
	DecisionEach                      // Ask about each change in the group
	DecisionAcceptAll                 // Apply this and every remaining change
	DecisionQuit                      // Stop the run
)

// String returns the prompt key for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "yes"
	case DecisionDecline:
		return "no"
	case DecisionEach:
		return "each"
	case DecisionAcceptAll:
		return "all"
	case DecisionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// RunResult summarizes a templatize run.
type RunResult struct {
	RunID          string        // History ID, empty when history is disabled
	Mode           string        // direct, dry-run or interactive
	FilesProcessed int           // Files visited
	PathsRenamed   int           // Files and directories renamed (or that would be)
	ContentChanges int           // Files whose contents changed (or would)
	Skipped        int           // Files skipped as binary, oversized or unreadable
	Declined       int           // Changes declined interactively
	Quit           bool          // Run stopped early by the user
	Duration       time.Duration // Wall time of the run
	Committed      []ChangeRecord
}

// Changed reports whether the run changed (or would change) anything.
func (r *RunResult) Changed() bool {
	return r.PathsRenamed > 0 || r.ContentChanges > 0
}
