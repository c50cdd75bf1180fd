package replace

import (
	"unicode/utf8"

	"github.com/harrison/templatize/internal/casing"
	"github.com/harrison/templatize/internal/variant"
)

// boundaryAt reports whether a match may start or end at byte offset p.
func boundaryAt(text string, p int, kind variant.Kind) bool {
	prev, _ := utf8.DecodeLastRuneInString(text[:p])
	cur, size := utf8.DecodeRuneInString(text[p:])
	if p == 0 {
		prev = 0
	}
	if p == len(text) {
		cur = 0
	}

	if kind == variant.KindExact {
		return casing.IdentifierBoundary(prev, cur)
	}

	next := rune(0)
	if p+size < len(text) {
		next, _ = utf8.DecodeRuneInString(text[p+size:])
	}
	return casing.WordBoundary(prev, cur, next)
}

// locator converts increasing byte offsets into 1-based line and column.
type locator struct {
	text      string
	scanned   int
	line      int
	lineStart int
}

func newLocator(text string) *locator {
	return &locator{text: text, line: 1}
}

func (l *locator) position(offset int) (line, column int) {
	for i := l.scanned; i < offset; i++ {
		if l.text[i] == '\n' {
			l.line++
			l.lineStart = i + 1
		}
	}
	l.scanned = offset
	return l.line, utf8.RuneCountInString(l.text[l.lineStart:offset]) + 1
}
