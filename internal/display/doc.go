// Package display renders templatize's terminal output: unified diffs of
// proposed content changes, rename previews, confirmation prompts, warnings
// and file progress.
//
// Colors come from fatih/color and are disabled automatically when stdout
// is not a terminal or NO_COLOR is set.
//
//	prompter := display.NewPrompter(os.Stdin, os.Stdout)
//	decision, err := prompter.ConfirmContent("src/main.rs", before, after, 2)
//
// Warnings are printed in yellow with optional file list and suggestion:
//
//	display.WarnNoMatches("my-project").Display(os.Stderr)
package display
