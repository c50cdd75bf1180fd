// Package casing splits compound identifiers into words and renders word
// lists back into the supported case shapes.
package casing

import (
	"strings"
	"unicode"
)

// WordList is an ordered sequence of lowercase words.
type WordList []string

// String joins the words with single spaces.
func (w WordList) String() string {
	return strings.Join(w, " ")
}

// Segment splits token into words and fails with *NotCompoundError when
// fewer than two words result.
func Segment(token string) (WordList, error) {
	words := Split(token)
	if len(words) < 2 {
		return nil, &NotCompoundError{Token: token, Words: words}
	}
	return words, nil
}

// Split is the non-failing form of Segment. A token without separators or
// case transitions yields a single word; an empty token yields none.
func Split(token string) WordList {
	lower := newCasers().lower
	runes := []rune(token)

	var words WordList
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, lower.String(string(current)))
			current = current[:0]
		}
	}

	for i, r := range runes {
		if !isWordRune(r) {
			flush()
			continue
		}
		if len(current) > 0 {
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if caseTransition(runes[i-1], r, next) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()

	return words
}

// WordBoundary reports whether a word boundary falls between prev and cur,
// using the same rules as Split. next is the rune after cur. Pass a
// non-letter (e.g. 0) for prev or cur at the edges of the text.
func WordBoundary(prev, cur, next rune) bool {
	if !isWordRune(prev) || !isWordRune(cur) {
		return true
	}
	return caseTransition(prev, cur, next)
}

// IdentifierBoundary reports whether prev and cur are not both letters or
// digits.
func IdentifierBoundary(prev, cur rune) bool {
	return !isWordRune(prev) || !isWordRune(cur)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// caseTransition reports whether cur starts a new word inside a
// separator-free run.
func caseTransition(prev, cur, next rune) bool {
	if !unicode.IsUpper(cur) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// HTTPServer: the S starts "server".
	return unicode.IsUpper(prev) && unicode.IsLower(next)
}
