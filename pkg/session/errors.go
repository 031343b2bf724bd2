package session

import "errors"

var (
	// ErrNoBackend indicates a session was created without a dialogue backend.
	ErrNoBackend = errors.New("session: no dialogue backend")

	// ErrBackend wraps any failure of the dialogue backend. It is always fatal.
	ErrBackend = errors.New("session: intent detection failed")
)
