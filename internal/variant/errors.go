package variant

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyToken is returned by BuildExact for an empty search token.
	ErrEmptyToken = errors.New("search token is empty")

	// ErrMalformedTemplate is the sentinel matched by MalformedReplacementTemplateError.
	ErrMalformedTemplate = errors.New("malformed replacement template")
)

// MalformedReplacementTemplateError reports a replacement that cannot be
// split into prefix, identifier and suffix.
type MalformedReplacementTemplateError struct {
	Template string
	Reason   string
}

func (e *MalformedReplacementTemplateError) Error() string {
	return fmt.Sprintf("malformed replacement template %q: %s", e.Template, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedTemplate) match any MalformedReplacementTemplateError.
func (e *MalformedReplacementTemplateError) Is(target error) bool {
	return target == ErrMalformedTemplate
}

func malformed(template, reason string) error {
	return &MalformedReplacementTemplateError{Template: template, Reason: reason}
}
