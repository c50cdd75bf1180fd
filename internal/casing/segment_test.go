package casing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  WordList
	}{
		{"kebab", "my-project", WordList{"my", "project"}},
		{"snake", "my_project", WordList{"my", "project"}},
		{"camel", "myProject", WordList{"my", "project"}},
		{"pascal", "MyProject", WordList{"my", "project"}},
		{"screaming snake", "MY_PROJECT", WordList{"my", "project"}},
		{"train", "My-Project", WordList{"my", "project"}},
		{"spaces", "my project", WordList{"my", "project"}},
		{"acronym run", "HTTPServer", WordList{"http", "server"}},
		{"digits attach to previous word", "v2Api", WordList{"v2", "api"}},
		{"digit then upper", "HTTP2Server", WordList{"http2", "server"}},
		{"repeated separators", "my--project__name", WordList{"my", "project", "name"}},
		{"leading and trailing separators", "-my-project_", WordList{"my", "project"}},
		{"three words", "myCoolProject", WordList{"my", "cool", "project"}},
		{"other punctuation separates", "my.project", WordList{"my", "project"}},
		{"unicode", "ÉcoleNormale", WordList{"école", "normale"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segment(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegment_NotCompound(t *testing.T) {
	for _, token := range []string{"example", "EXAMPLE", "", "---", "v2"} {
		t.Run(token, func(t *testing.T) {
			_, err := Segment(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotCompound))

			var nce *NotCompoundError
			require.True(t, errors.As(err, &nce))
			assert.Equal(t, token, nce.Token)
			assert.Contains(t, err.Error(), "not a compound word")
		})
	}
}

func TestSplit_SingleWord(t *testing.T) {
	assert.Equal(t, WordList{"name"}, Split("name"))
	assert.Equal(t, WordList{"name"}, Split("NAME"))
	assert.Empty(t, Split(""))
}

func TestSegment_RoundTrip(t *testing.T) {
	inputs := []WordList{
		{"my", "project"},
		{"my", "cool", "project"},
		{"http", "server", "v2"},
		{"école", "normale"},
	}

	for _, words := range inputs {
		for _, shape := range AllShapes() {
			rendered := Render(words, shape)
			got, err := Segment(rendered)
			require.NoError(t, err, "%s %s", shape, rendered)
			assert.Equal(t, words, got, "%s rendered as %q", shape, rendered)
		}
	}
}

func TestWordBoundary(t *testing.T) {
	tests := []struct {
		prev, cur, next rune
		want            bool
	}{
		{0, 'a', 'b', true},
		{'a', 0, 0, true},
		{'b', 'c', 'd', false},
		{'t', 'S', 'e', true},
		{'P', 'S', 'e', true},
		{'P', 'S', 'E', false},
		{'2', 'S', 'e', true},
		{'a', '2', 0, false},
		{'-', 'p', 'r', true},
	}
	for _, tt := range tests {
		if got := WordBoundary(tt.prev, tt.cur, tt.next); got != tt.want {
			t.Errorf("WordBoundary(%q, %q, %q) = %v, want %v", tt.prev, tt.cur, tt.next, got, tt.want)
		}
	}
}

func TestIdentifierBoundary(t *testing.T) {
	assert.True(t, IdentifierBoundary(0, 'a'))
	assert.True(t, IdentifierBoundary('a', ' '))
	assert.False(t, IdentifierBoundary('y', 'A'))
	assert.False(t, IdentifierBoundary('1', 'a'))
}
