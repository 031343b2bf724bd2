package intent

import (
	"context"
	"sync"
)

// Turn is one scripted DetectIntent result for Mock.
type Turn struct {
	Event Event
	Err   error

	// Notices are published before the event is returned.
	Notices []Notice
}

// Mock implements Backend for testing by replaying scripted turns.
type Mock struct {
	// DetectIntentFunc overrides the scripted turns when set.
	DetectIntentFunc func(ctx context.Context, sessionID string) (Event, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu         sync.Mutex
	turns      []Turn
	next       int
	sessionIDs []string
	closeCount int
	stream     *Stream
}

// NewMock creates a backend that replays turns in order and returns
// ErrNoMoreTurns once they are exhausted.
func NewMock(turns ...Turn) *Mock {
	return &Mock{
		turns:  turns,
		stream: NewStream(DefaultStreamBuffer),
	}
}

// DetectIntent implements Backend.
func (m *Mock) DetectIntent(ctx context.Context, sessionID string) (Event, error) {
	m.mu.Lock()
	m.sessionIDs = append(m.sessionIDs, sessionID)
	fn := m.DetectIntentFunc
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if fn != nil {
		return fn(ctx, sessionID)
	}

	m.mu.Lock()
	if m.next >= len(m.turns) {
		m.mu.Unlock()
		return Event{}, ErrNoMoreTurns
	}
	turn := m.turns[m.next]
	m.next++
	m.mu.Unlock()

	for _, n := range turn.Notices {
		m.stream.Publish(n)
	}
	return turn.Event, turn.Err
}

// Notices implements Backend.
func (m *Mock) Notices() <-chan Notice {
	return m.stream.C()
}

// Stream exposes the underlying notice stream.
func (m *Mock) Stream() *Stream {
	return m.stream
}

// LatestFinal implements TranscriptSource.
func (m *Mock) LatestFinal() (Notice, bool) {
	return m.stream.LatestFinal()
}

// Close implements Backend.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closeCount++
	fn := m.CloseFunc
	m.mu.Unlock()

	m.stream.Close()
	if fn != nil {
		return fn()
	}
	return nil
}

// Requests returns the number of DetectIntent calls.
func (m *Mock) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessionIDs)
}

// SessionIDs returns the session IDs passed to DetectIntent, in order.
func (m *Mock) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sessionIDs))
	copy(out, m.sessionIDs)
	return out
}

// CloseCount returns how many times Close was called.
func (m *Mock) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
