package display

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/templatize/internal/models"
)

// InputReader reads a line of user input.
type InputReader interface {
	ReadString(delim byte) (string, error)
}

// Prompter asks the user to confirm changes.
type Prompter struct {
	in  InputReader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts and diffs to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return NewPrompterWithReader(bufio.NewReader(in), out)
}

// NewPrompterWithReader allows injection of a reader for testing.
func NewPrompterWithReader(in InputReader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

var (
	fileChoices = map[string]models.Decision{
		"y": models.DecisionAccept, "yes": models.DecisionAccept,
		"n": models.DecisionDecline, "no": models.DecisionDecline,
		"e": models.DecisionEach, "each": models.DecisionEach,
		"a": models.DecisionAcceptAll, "all": models.DecisionAcceptAll,
		"q": models.DecisionQuit, "quit": models.DecisionQuit,
	}
	singleChoices = map[string]models.Decision{
		"y": models.DecisionAccept, "yes": models.DecisionAccept,
		"n": models.DecisionDecline, "no": models.DecisionDecline,
		"a": models.DecisionAcceptAll, "all": models.DecisionAcceptAll,
		"q": models.DecisionQuit, "quit": models.DecisionQuit,
	}
)

// ConfirmContent shows the diff for one file and asks whether to apply it.
func (p *Prompter) ConfirmContent(path, before, after string, changes int) (models.Decision, error) {
	fmt.Fprintln(p.out)
	RenderDiff(p.out, path, before, after)
	question := fmt.Sprintf("Apply %d %s to %s? [y]es/[n]o/[e]ach/[a]ll/[q]uit: ", changes, plural(changes, "change", "changes"), path)
	return p.ask(question, fileChoices, "y, n, e, a or q")
}

// ConfirmSpan asks about a single content change, showing the line it is on.
func (p *Prompter) ConfirmSpan(rec models.ChangeRecord, lineBefore, lineAfter string) (models.Decision, error) {
	loc := rec.Location
	color.New(color.FgCyan).Fprintf(p.out, "%s:%d:%d (%s)\n", loc.Path, loc.Line, loc.Column, rec.Rule)
	color.New(color.FgRed).Fprintf(p.out, "- %s\n", lineBefore)
	color.New(color.FgGreen).Fprintf(p.out, "+ %s\n", lineAfter)
	return p.ask("Apply this change? [y]es/[n]o/[a]ll/[q]uit: ", singleChoices, "y, n, a or q")
}

// ConfirmRename shows a rename and asks whether to perform it.
func (p *Prompter) ConfirmRename(oldPath, newPath string) (models.Decision, error) {
	fmt.Fprintln(p.out)
	RenderRename(p.out, oldPath, newPath)
	return p.ask("Rename? [y]es/[n]o/[a]ll/[q]uit: ", singleChoices, "y, n, a or q")
}

// YesNo asks a yes/no question. An empty answer or end of input selects def.
func (p *Prompter) YesNo(question string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s: ", question, hint)
		input, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to read input: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "":
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
			}
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// ask loops until the answer is one of choices. An empty line accepts and
// end of input quits.
func (p *Prompter) ask(question string, choices map[string]models.Decision, valid string) (models.Decision, error) {
	for {
		color.New(color.FgCyan).Fprint(p.out, question)
		input, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return models.DecisionQuit, fmt.Errorf("failed to read input: %w", err)
		}

		answer := strings.ToLower(strings.TrimSpace(input))
		if answer == "" && err == nil {
			return models.DecisionAccept, nil
		}
		if d, ok := choices[answer]; ok {
			return d, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return models.DecisionQuit, nil
		}
		fmt.Fprintf(p.out, "Please answer %s.\n", valid)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
