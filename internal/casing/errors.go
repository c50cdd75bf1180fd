package casing

import (
	"errors"
	"fmt"
)

// ErrNotCompound is the sentinel matched by NotCompoundError.
var ErrNotCompound = errors.New("not a compound word")

// NotCompoundError is returned by Segment when a token yields fewer than two words.
type NotCompoundError struct {
	Token string
	Words WordList
}

func (e *NotCompoundError) Error() string {
	return fmt.Sprintf("%q is not a compound word: use hyphens, underscores or mixed case (e.g. 'example-name', 'example_name', 'ExampleName')", e.Token)
}

// Is lets errors.Is(err, ErrNotCompound) match any NotCompoundError.
func (e *NotCompoundError) Is(target error) bool {
	return target == ErrNotCompound
}
