package models

import (
	"sort"
	"strings"
)

// ChangeKind distinguishes path renames from content edits.
type ChangeKind int

const (
	KindContent ChangeKind = iota // Edit inside a file's contents
	KindPath                      // Rename of a file or directory
)

// String returns the lowercase name stored in run history.
func (k ChangeKind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// ParseChangeKind is the inverse of ChangeKind.String.
func ParseChangeKind(s string) ChangeKind {
	if s == "path" {
		return KindPath
	}
	return KindContent
}

// Location pins a change inside the target tree.
//
// For content changes Path is the file and Offset/Line/Column locate the span
// in the original text. For path changes Path is the entry being renamed and
// Depth is its number of path components below the root.
type Location struct {
	Path   string // Slash-separated, relative to the target root
	IsDir  bool   // Path change applies to a directory
	Depth  int    // Path components below the root (path changes)
	Offset int    // Byte offset in the original content (content changes)
	Line   int    // 1-based line of Offset
	Column int    // 1-based rune column of Offset
}

// ChangeRecord is one proposed replacement. Records are values and are not
// modified once produced.
type ChangeRecord struct {
	Kind     ChangeKind
	Location Location
	Before   string // Matched text or original segment name
	After    string // Substitute text or new segment name
	Rule     string // Shape name, "exact" or "escape"
}

// InPath returns a copy of r located in the given file.
func (r ChangeRecord) InPath(path string) ChangeRecord {
	r.Location.Path = path
	return r
}

// End returns the byte offset just past the matched text.
func (r ChangeRecord) End() int {
	return r.Location.Offset + len(r.Before)
}

// ApplySpans rebuilds content from original using only the given content
// spans. Spans that overlap an earlier span or no longer match the original
// text are ignored, so any subset of a replacer's output is safe to apply.
func ApplySpans(original string, spans []ChangeRecord) string {
	if len(spans) == 0 {
		return original
	}

	ordered := make([]ChangeRecord, 0, len(spans))
	for _, s := range spans {
		if s.Kind == KindContent {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Location.Offset < ordered[j].Location.Offset
	})

	var b strings.Builder
	b.Grow(len(original))
	last := 0
	for _, s := range ordered {
		start, end := s.Location.Offset, s.End()
		if start < last || end > len(original) || original[start:end] != s.Before {
			continue
		}
		b.WriteString(original[last:start])
		b.WriteString(s.After)
		last = end
	}
	b.WriteString(original[last:])
	return b.String()
}
