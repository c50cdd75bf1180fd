package casing

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Shape is one of the supported case shapes.
type Shape int

// Shapes in priority order. The order decides ties between equally long
// matches and which shape wins when two render the same pattern.
const (
	Kebab Shape = iota
	Camel
	Pascal
	Snake
	ScreamingSnake
	Train
	ScreamingKebab
)

var allShapes = []Shape{Kebab, Camel, Pascal, Snake, ScreamingSnake, Train, ScreamingKebab}

// AllShapes returns every shape in priority order.
func AllShapes() []Shape {
	out := make([]Shape, len(allShapes))
	copy(out, allShapes)
	return out
}

type wordCase int

const (
	caseLower wordCase = iota
	caseUpper
	caseCapital
)

type shapeRule struct {
	name   string
	joiner string
	first  wordCase
	rest   wordCase
}

var shapeRules = map[Shape]shapeRule{
	Kebab:          {"kebab-case", "-", caseLower, caseLower},
	Camel:          {"camelCase", "", caseLower, caseCapital},
	Pascal:         {"PascalCase", "", caseCapital, caseCapital},
	Snake:          {"snake_case", "_", caseLower, caseLower},
	ScreamingSnake: {"SCREAMING_SNAKE_CASE", "_", caseUpper, caseUpper},
	Train:          {"Train-Case", "-", caseCapital, caseCapital},
	ScreamingKebab: {"SCREAMING-KEBAB-CASE", "-", caseUpper, caseUpper},
}

// String returns the conventional name of the shape, e.g. "camelCase".
func (s Shape) String() string {
	if r, ok := shapeRules[s]; ok {
		return r.name
	}
	return "unknown"
}

// Render joins words in the given shape. Render of an empty list is "".
func Render(words WordList, shape Shape) string {
	rule, ok := shapeRules[shape]
	if !ok {
		return strings.Join(words, "")
	}

	c := newCasers()
	parts := make([]string, len(words))
	for i, w := range words {
		wc := rule.rest
		if i == 0 {
			wc = rule.first
		}
		parts[i] = c.apply(w, wc)
	}
	return strings.Join(parts, rule.joiner)
}

// casers are not safe for concurrent use, so each call builds its own.
type casers struct {
	upper cases.Caser
	lower cases.Caser
}

func newCasers() casers {
	return casers{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

func (c casers) apply(word string, wc wordCase) string {
	switch wc {
	case caseUpper:
		return c.upper.String(word)
	case caseCapital:
		lowered := c.lower.String(word)
		_, size := utf8.DecodeRuneInString(lowered)
		return c.upper.String(lowered[:size]) + lowered[size:]
	default:
		return c.lower.String(word)
	}
}
