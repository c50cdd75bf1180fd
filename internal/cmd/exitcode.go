package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/templatize/internal/apply"
	"github.com/harrison/templatize/internal/casing"
	"github.com/harrison/templatize/internal/variant"
)

// Process exit codes
const (
	ExitOK      = 0
	ExitFailure = 1 // runtime or IO error
	ExitUsage   = 2 // bad arguments, flags or tokens
	ExitLocked  = 3 // another run holds the target lock
)

// UsageError marks errors caused by how templatize was invoked.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, apply.ErrLocked):
		return ExitLocked
	case errors.Is(err, casing.ErrNotCompound),
		errors.Is(err, variant.ErrMalformedTemplate),
		errors.Is(err, variant.ErrEmptyToken),
		errors.As(err, &usage):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// usageArgs wraps a cobra argument validator so its errors map to ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
