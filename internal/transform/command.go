package transform

import "fmt"

// CommandKind selects the transform applied by an Engine.
type CommandKind int

const (
	CommandEscape CommandKind = iota
	CommandShapes
	CommandExact
)

func (k CommandKind) String() string {
	switch k {
	case CommandEscape:
		return "escape"
	case CommandShapes:
		return "shapes"
	case CommandExact:
		return "exact"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one of escape, shapes or exact together with its arguments.
type Command struct {
	Kind        CommandKind
	Token       string
	Replacement string
}

// Escape returns the escape command.
func Escape() Command {
	return Command{Kind: CommandEscape}
}

// Shapes returns a case-shape command for token.
func Shapes(token, replacement string) Command {
	return Command{Kind: CommandShapes, Token: token, Replacement: replacement}
}

// Exact returns a literal replacement command for token.
func Exact(token, replacement string) Command {
	return Command{Kind: CommandExact, Token: token, Replacement: replacement}
}
