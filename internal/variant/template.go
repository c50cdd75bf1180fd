package variant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// delimiter is a recognized template delimiter pair.
type delimiter struct {
	open, close string
}

var delimiters = []delimiter{
	{"{{", "}}"},
	{"{%", "%}"},
	{"{#", "#}"},
}

// wrapper is a replacement template split around its identifier.
type wrapper struct {
	prefix string
	ident  string
	suffix string
}

// parseTemplate splits a replacement template into prefix, identifier and
// suffix. The identifier lives inside the outermost delimiter pair; in a
// dotted access such as cookiecutter.project_name the last component is the
// identifier.
func parseTemplate(template string) (wrapper, error) {
	if template == "" {
		return wrapper{}, malformed(template, "template is empty")
	}

	start, d, ok := firstOpener(template, 0)
	if !ok {
		if !isIdentifier(template) {
			return wrapper{}, malformed(template, "no template delimiters and not an identifier")
		}
		return wrapper{ident: template}, nil
	}

	end := strings.LastIndex(template, d.close)
	if end < start+len(d.open) {
		return wrapper{}, malformed(template, "opener "+d.open+" has no matching "+d.close)
	}
	if err := checkBalanced(template); err != nil {
		return wrapper{}, err
	}

	innerStart := start + len(d.open)
	lo, hi, found := findIdentifier(template[innerStart:end])
	if !found {
		return wrapper{}, malformed(template, "no identifier inside "+d.open+" "+d.close)
	}

	return wrapper{
		prefix: template[:innerStart+lo],
		ident:  template[innerStart+lo : innerStart+hi],
		suffix: template[innerStart+hi:],
	}, nil
}

// checkBalanced verifies that every opener is followed by its closer.
func checkBalanced(s string) error {
	pos := 0
	for {
		start, d, ok := firstOpener(s, pos)
		if !ok {
			return nil
		}
		rel := strings.Index(s[start+len(d.open):], d.close)
		if rel < 0 {
			return malformed(s, "opener "+d.open+" has no matching "+d.close)
		}
		pos = start + len(d.open) + rel + len(d.close)
	}
}

// firstOpener finds the earliest opener at or after from.
func firstOpener(s string, from int) (int, delimiter, bool) {
	best := -1
	var bestDelim delimiter
	for _, d := range delimiters {
		i := strings.Index(s[from:], d.open)
		if i >= 0 && (best < 0 || from+i < best) {
			best = from + i
			bestDelim = d
		}
	}
	return best, bestDelim, best >= 0
}

// findIdentifier returns the byte range of the identifier in inner: the first
// run of identifier runes starting with a letter or digit, extended through
// dotted attribute access to its last component.
func findIdentifier(inner string) (lo, hi int, ok bool) {
	i := 0
	for i < len(inner) {
		r, size := utf8.DecodeRuneInString(inner[i:])
		if isWordRune(r) {
			break
		}
		i += size
	}
	if i >= len(inner) {
		return 0, 0, false
	}

	lo, hi = identRun(inner, i)
	for hi < len(inner) && inner[hi] == '.' {
		r, _ := utf8.DecodeRuneInString(inner[hi+1:])
		if !isWordRune(r) {
			break
		}
		lo, hi = identRun(inner, hi+1)
	}
	return lo, hi, true
}

// identRun scans identifier runes from start, dropping trailing - and _ so
// whitespace-control markers like "-}}" stay in the suffix.
func identRun(s string, start int) (int, int) {
	end := start
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isIdentRune(r) {
			break
		}
		end += size
	}
	for end > start && (s[end-1] == '-' || s[end-1] == '_') {
		end--
	}
	return start, end
}

func isIdentifier(s string) bool {
	hasWord := false
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
		hasWord = hasWord || isWordRune(r)
	}
	return hasWord
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentRune(r rune) bool {
	return isWordRune(r) || r == '-' || r == '_'
}
