package intent

import (
	"sync"
	"time"
)

// Notice is an intermediate speech recognition result.
type Notice struct {
	Transcript string
	Final      bool
	At         time.Time
}

// TranscriptSource reports the most recent final transcript. Streams and the
// backends that own one implement it.
type TranscriptSource interface {
	LatestFinal() (Notice, bool)
}

// DefaultStreamBuffer is the notice buffer used when none is given.
const DefaultStreamBuffer = 64

// Stream is an ordered notice queue shared by a backend (producer) and the
// session (consumer).
//
// Publish never blocks: when the consumer falls behind, the notice is
// dropped from the queue but still considered for LatestFinal. Notices are
// delivered in publish order.
type Stream struct {
	mu      sync.Mutex
	ch      chan Notice
	closed  bool
	latest  Notice
	hasLast bool
	dropped int
}

// NewStream creates a stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	return &Stream{ch: make(chan Notice, buffer)}
}

// Publish appends a notice. Publishing to a closed stream is a no-op.
func (s *Stream) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if n.Final {
		s.latest = n
		s.hasLast = true
	}
	select {
	case s.ch <- n:
	default:
		s.dropped++
	}
}

// C returns the consumable notice channel.
func (s *Stream) C() <-chan Notice {
	return s.ch
}

// LatestFinal returns the most recently published final notice.
func (s *Stream) LatestFinal() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLast
}

var _ TranscriptSource = (*Stream)(nil)

// Dropped returns how many notices were discarded because the buffer was full.
func (s *Stream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close closes the notice channel. It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
