package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// maxListedFiles caps the affected-file list; the rest are summarized.
const maxListedFiles = 10

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			if i == maxListedFiles {
				fmt.Fprintf(&b, "      ... and %d more\n", len(w.Files)-maxListedFiles)
				break
			}
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}

// WarnAlreadyEscaped warns that escape is about to run on files that
// already contain escaped delimiters.
func WarnAlreadyEscaped(files []string) Warning {
	return Warning{
		Title:      "files already contain escaped delimiters",
		Message:    "Escaping them again will corrupt the existing escapes.",
		Files:      files,
		Suggestion: "Run escape only once per tree, or restore the files first.",
	}
}

// WarnNoMatches warns that a run found nothing to change.
func WarnNoMatches(token string) Warning {
	w := Warning{Title: "no matches found"}
	if token != "" {
		w.Message = fmt.Sprintf("%q did not occur in any selected path or file.", token)
		w.Suggestion = "Check the token spelling and that --path/--contents select what you expect."
	}
	return w
}
