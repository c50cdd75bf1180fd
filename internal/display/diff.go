package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContextLines is the number of unchanged lines shown around each change.
const ContextLines = 3

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Type       diffmatchpatch.Operation // DiffEqual, DiffInsert or DiffDelete
	Text       string                   // Line text without the trailing newline
	OldLineNum int                      // 0 for inserted lines
	NewLineNum int                      // 0 for deleted lines
}

// Hunk is a run of changed lines with surrounding context.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []DiffLine
}

// LineDiff computes a line-level diff of before and after.
func LineDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 5 * time.Second

	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []DiffLine
	oldNum, newNum := 1, 1
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			line := DiffLine{Type: d.Type, Text: text}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				line.OldLineNum, line.NewLineNum = oldNum, newNum
				oldNum++
				newNum++
			case diffmatchpatch.DiffDelete:
				line.OldLineNum = oldNum
				oldNum++
			case diffmatchpatch.DiffInsert:
				line.NewLineNum = newNum
				newNum++
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// Hunks groups diff lines into hunks with context lines of context.
func Hunks(lines []DiffLine, context int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Type == diffmatchpatch.DiffEqual {
			i++
			continue
		}

		start := max(0, i-context)
		end := i
		for end < len(lines) {
			if lines[end].Type != diffmatchpatch.DiffEqual {
				end++
				continue
			}
			// Merge changes separated by at most 2*context equal lines.
			run := end
			for run < len(lines) && lines[run].Type == diffmatchpatch.DiffEqual {
				run++
			}
			if run < len(lines) && run-end <= 2*context {
				end = run
				continue
			}
			end = min(len(lines), end+context)
			break
		}

		hunks = append(hunks, newHunk(lines[start:end]))
		i = end
	}
	return hunks
}

func newHunk(lines []DiffLine) Hunk {
	h := Hunk{Lines: lines}
	for _, l := range lines {
		if l.Type != diffmatchpatch.DiffInsert {
			if h.OldStart == 0 {
				h.OldStart = l.OldLineNum
			}
			h.OldCount++
		}
		if l.Type != diffmatchpatch.DiffDelete {
			if h.NewStart == 0 {
				h.NewStart = l.NewLineNum
			}
			h.NewCount++
		}
	}
	return h
}

// RenderDiff writes a colored unified diff of one file.
func RenderDiff(w io.Writer, path, before, after string) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	bold.Fprintf(w, "--- a/%s\n", path)
	bold.Fprintf(w, "+++ b/%s\n", path)
	for _, h := range Hunks(LineDiff(before, after), ContextLines) {
		cyan.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case diffmatchpatch.DiffDelete:
				red.Fprintf(w, "-%s\n", l.Text)
			case diffmatchpatch.DiffInsert:
				green.Fprintf(w, "+%s\n", l.Text)
			default:
				fmt.Fprintf(w, " %s\n", l.Text)
			}
		}
	}
}

// RenderRename writes a rename preview.
func RenderRename(w io.Writer, oldPath, newPath string) {
	color.New(color.FgRed).Fprintf(w, "- %s\n", oldPath)
	color.New(color.FgGreen).Fprintf(w, "+ %s\n", newPath)
}

// splitLines splits text into lines, dropping the newline terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\n")
	}
	return lines
}
