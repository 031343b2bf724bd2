package action

import (
	"errors"
	"fmt"
)

// Sentinel errors for the action package.
var (
	// ErrTransport indicates the connection to the robot is lost.
	// Transport failures are always fatal to the session.
	ErrTransport = errors.New("action: transport failure")

	// ErrCritical indicates a critical action failed.
	ErrCritical = errors.New("action: critical action failed")

	// ErrNoPort indicates no port is configured for the action's channel.
	ErrNoPort = errors.New("action: no port for channel")

	// ErrInvalidAction indicates the action payload is malformed.
	ErrInvalidAction = errors.New("action: invalid action")
)

// TransportError wraps a connection-level failure talking to the robot.
type TransportError struct {
	// Op is the operation that failed (e.g. "tts/say").
	Op string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("action: transport failure during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("action: transport failure during %s", e.Op)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is reports ErrTransport as a match so callers can use errors.Is.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a TransportError.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

// FailureError describes a fatal action failure surfaced by the executor.
type FailureError struct {
	Action Action
	Err    error
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("action %s: %v", e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *FailureError) Unwrap() error {
	return e.Err
}

// IsTransport returns true if err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsCritical returns true if err is an escalated critical action failure.
func IsCritical(err error) bool {
	return errors.Is(err, ErrCritical)
}
