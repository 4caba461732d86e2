package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound = fmt.Errorf("account not found")
	ErrQueueFull       = fmt.Errorf("queue is full")
	ErrAccountDisabled = fmt.Errorf("account disabled")
	ErrInvalidArg      = fmt.Errorf("invalid arg")
	ErrClockBackwards  = fmt.Errorf("clock moved backwards")
)

// Is reports whether err wraps target; re-exported so callers need only
// this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
