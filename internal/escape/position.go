package escape

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// lineIndex maps byte offsets to 1-based line and rune column.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := strings.IndexByte(text, '\n'); i >= 0; {
		starts = append(starts, starts[len(starts)-1]+i+1)
		i = strings.IndexByte(text[starts[len(starts)-1]:], '\n')
	}
	return &lineIndex{text: text, starts: starts}
}

func (l *lineIndex) position(offset int) (line, column int) {
	i := sort.SearchInts(l.starts, offset+1) - 1
	return i + 1, utf8.RuneCountInString(l.text[l.starts[i]:offset]) + 1
}
