// Package variant builds the search/substitute pairs for a templatize run.
package variant

import (
	"sort"

	"github.com/harrison/templatize/internal/casing"
)

// Kind selects how a mapping was built and which boundary rule applies.
type Kind int

const (
	KindShapes Kind = iota // One entry per case shape, case-aware boundaries
	KindExact              // One literal entry, identifier boundaries
)

func (k Kind) String() string {
	if k == KindExact {
		return "exact"
	}
	return "shapes"
}

// RawRule names the variant holding the token exactly as given.
const RawRule = "raw"

// Variant is one search pattern and its substitute.
type Variant struct {
	Rule       string       // Shape name or "exact"
	Shape      casing.Shape // Meaningful for KindShapes only
	Priority   int          // Lower wins ties between equally long matches
	Pattern    string
	Substitute string
	Shadowed   bool // A later shape renders the same pattern; never matches
	Raw        bool // The token as typed, kept when no shape renders it
}

// Mapping is the read-only set of variants for one run.
type Mapping struct {
	Kind        Kind
	Token       string
	Replacement string
	Variants    []Variant
}

// BuildShapes segments token, parses the replacement template and renders
// both in every case shape. When the token as typed differs from every
// rendered pattern (e.g. "HTTPServer" renders as "HttpServer"), it is kept
// as a lowest-priority eighth variant with the replacement unchanged.
func BuildShapes(token, replacement string) (*Mapping, error) {
	tokenWords, err := casing.Segment(token)
	if err != nil {
		return nil, err
	}

	w, err := parseTemplate(replacement)
	if err != nil {
		return nil, err
	}
	replacementWords := casing.Split(w.ident)

	shapes := casing.AllShapes()
	variants := make([]Variant, len(shapes))
	owner := make(map[string]int, len(shapes))
	for i, shape := range shapes {
		pattern := casing.Render(tokenWords, shape)
		variants[i] = Variant{
			Rule:       shape.String(),
			Shape:      shape,
			Priority:   i,
			Pattern:    pattern,
			Substitute: w.prefix + casing.Render(replacementWords, shape) + w.suffix,
		}
		// Later shapes win a pattern collision.
		if prev, ok := owner[pattern]; ok {
			variants[prev].Shadowed = true
		}
		owner[pattern] = i
	}
	if _, ok := owner[token]; !ok {
		variants = append(variants, Variant{
			Rule:       RawRule,
			Priority:   len(shapes),
			Pattern:    token,
			Substitute: replacement,
			Raw:        true,
		})
	}

	return &Mapping{
		Kind:        KindShapes,
		Token:       token,
		Replacement: replacement,
		Variants:    variants,
	}, nil
}

// BuildExact returns a single literal variant.
func BuildExact(token, replacement string) (*Mapping, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if err := checkBalanced(replacement); err != nil {
		return nil, err
	}

	return &Mapping{
		Kind:        KindExact,
		Token:       token,
		Replacement: replacement,
		Variants: []Variant{{
			Rule:       KindExact.String(),
			Pattern:    token,
			Substitute: replacement,
		}},
	}, nil
}

// Lookup returns the variant for shape.
func (m *Mapping) Lookup(shape casing.Shape) (Variant, bool) {
	for _, v := range m.Variants {
		if m.Kind == KindShapes && !v.Raw && v.Shape == shape {
			return v, true
		}
	}
	return Variant{}, false
}

// Active returns the variants that can match, longest pattern first and
// then by priority.
func (m *Mapping) Active() []Variant {
	out := make([]Variant, 0, len(m.Variants))
	for _, v := range m.Variants {
		if !v.Shadowed && v.Pattern != "" {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Pattern) != len(out[j].Pattern) {
			return len(out[i].Pattern) > len(out[j].Pattern)
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}
