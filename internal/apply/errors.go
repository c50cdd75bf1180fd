package apply

import "errors"

var (
	// ErrLocked means another templatize run holds the lock for the target.
	ErrLocked = errors.New("another templatize run is in progress on this target")

	// ErrQuit means the user stopped an interactive run. Changes committed
	// before the quit stay committed.
	ErrQuit = errors.New("run stopped by user")
)
