// Package escape neutralizes existing Jinja delimiters so a tree can be
// templatized without its own template syntax being evaluated.
package escape

import (
	"regexp"
	"strings"

	"github.com/harrison/templatize/internal/models"
)

// Marker is the escaped form of an opening brace.
const Marker = "{{'{'}}"

// Rule names the transform in change records.
const Rule = "escape"

// A complete {{ expr }} comes first so the lone openers only catch the rest.
var openerPattern = regexp.MustCompile(`\{\{\s*([^}]+)\s*\}\}|\{\{|\{%|\{#`)

// Escape rewrites every delimiter opener in one left-to-right pass.
//
//	{{ name }}  ->  {{'{'}}{ name }
//	{{          ->  {{'{'}}{
//	{%          ->  {{'{'}}%
//	{#          ->  {{'{'}}#
//
// Escaping already escaped text corrupts it; callers should check
// AlreadyEscaped first.
func Escape(text string) (string, []models.ChangeRecord) {
	matches := openerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*len(Marker))
	spans := make([]models.ChangeRecord, 0, len(matches))
	loc := newLineIndex(text)
	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		before := text[start:end]

		var after string
		switch {
		case m[2] >= 0:
			after = Marker + "{ " + strings.TrimSpace(text[m[2]:m[3]]) + " }"
		default:
			// {{, {% or {#: keep the second character.
			after = Marker + before[1:]
		}

		line, col := loc.position(start)
		spans = append(spans, models.ChangeRecord{
			Kind:     models.KindContent,
			Location: models.Location{Offset: start, Line: line, Column: col},
			Before:   before,
			After:    after,
			Rule:     Rule,
		})

		b.WriteString(text[last:start])
		b.WriteString(after)
		last = end
	}
	b.WriteString(text[last:])

	return b.String(), spans
}

// AlreadyEscaped reports whether text contains the escape marker.
func AlreadyEscaped(text string) bool {
	return strings.Contains(text, Marker)
}
