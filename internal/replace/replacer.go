// Package replace rewrites every occurrence of a mapping's patterns in a
// single non-overlapping pass.
package replace

import (
	"strings"

	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/variant"
)

// Replace substitutes all boundary-valid pattern occurrences in text.
//
// At each position the longest matching pattern wins, ties going to the
// higher-priority shape. Scanning resumes after the matched text, so
// substituted text is never scanned again. The returned spans are content
// records in input order, without a path.
func Replace(text string, m *variant.Mapping) (string, []models.ChangeRecord) {
	if m == nil || text == "" {
		return text, nil
	}
	candidates := m.Active()
	if len(candidates) == 0 {
		return text, nil
	}

	next := make([]int, len(candidates))
	for k, c := range candidates {
		next[k] = strings.Index(text, c.Pattern)
	}

	var (
		b     strings.Builder
		spans []models.ChangeRecord
		last  int
		loc   = newLocator(text)
	)

	for {
		at := -1
		for _, n := range next {
			if n >= 0 && (at < 0 || n < at) {
				at = n
			}
		}
		if at < 0 {
			break
		}

		chosen := -1
		if boundaryAt(text, at, m.Kind) {
			for k, c := range candidates {
				if next[k] == at && boundaryAt(text, at+len(c.Pattern), m.Kind) {
					chosen = k
					break
				}
			}
		}

		resume := at + 1
		if chosen >= 0 {
			c := candidates[chosen]
			line, col := loc.position(at)
			spans = append(spans, models.ChangeRecord{
				Kind:     models.KindContent,
				Location: models.Location{Offset: at, Line: line, Column: col},
				Before:   c.Pattern,
				After:    c.Substitute,
				Rule:     c.Rule,
			})
			if b.Len() == 0 {
				b.Grow(len(text))
			}
			b.WriteString(text[last:at])
			b.WriteString(c.Substitute)
			last = at + len(c.Pattern)
			resume = last
		}

		for k, c := range candidates {
			if next[k] >= 0 && next[k] < resume {
				next[k] = indexFrom(text, c.Pattern, resume)
			}
		}
	}

	if len(spans) == 0 {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), spans
}

func indexFrom(text, pattern string, from int) int {
	if from > len(text) {
		return -1
	}
	i := strings.Index(text[from:], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}
