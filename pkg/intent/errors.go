package intent

import "errors"

var (
	// ErrBackendClosed indicates the dialogue backend is no longer usable.
	ErrBackendClosed = errors.New("intent: backend closed")

	// ErrNoMoreTurns is returned by Mock when its scripted turns run out.
	ErrNoMoreTurns = errors.New("intent: no more scripted turns")
)

// IsClosed returns true if err indicates a closed backend.
func IsClosed(err error) bool {
	return errors.Is(err, ErrBackendClosed)
}
