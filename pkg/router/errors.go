package router

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownScript indicates a built-in script name that does not exist.
	ErrUnknownScript = errors.New("router: unknown script")

	// ErrInvalidScript indicates a script file that cannot be used.
	ErrInvalidScript = errors.New("router: invalid script")
)

// StepError reports a malformed step in a script file.
type StepError struct {
	// Where locates the step, e.g. "routes[2].actions[0]".
	Where   string
	Message string
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("router: %s: %s", e.Where, e.Message)
}

// Unwrap makes StepError match ErrInvalidScript.
func (e *StepError) Unwrap() error {
	return ErrInvalidScript
}
