// Package session owns the state of one robot conversation and the turn
// loop that drives it.
//
// A Session is an explicit object holding the scene state, the dialogue
// backend and the actuator ports. It is created before the loop starts and
// torn down exactly once by Close, on every exit path.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
)

// State is the mutable state of a session.
type State struct {
	// SessionID is fixed for the lifetime of the session.
	SessionID string `json:"session_id"`

	// Scene only ever increases.
	Scene int `json:"scene"`

	// Terminated never reverts to false.
	Terminated bool `json:"terminated"`
}

// DefaultTeardownTimeout bounds the rest command issued during teardown.
const DefaultTeardownTimeout = 5 * time.Second

// Session holds the resources of one conversation.
type Session struct {
	backend intent.Backend
	ports   action.Ports
	closers []io.Closer
	logger  *slog.Logger

	restOnTeardown  bool
	teardownTimeout time.Duration

	mu    sync.RWMutex
	state State
	// ended is set when the end intent's closing sequence has run.
	ended bool

	closeOnce sync.Once
	closeErr  error
	teardowns int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.state.SessionID = id
		}
	}
}

// WithClosers registers resources released during teardown, in order.
func WithClosers(closers ...io.Closer) Option {
	return func(s *Session) {
		s.closers = append(s.closers, closers...)
	}
}

// WithRestOnTeardown controls whether teardown puts the robot to rest when
// the session did not end through the end intent.
func WithRestOnTeardown(enabled bool) Option {
	return func(s *Session) {
		s.restOnTeardown = enabled
	}
}

// WithTeardownTimeout bounds the teardown rest command.
func WithTeardownTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.teardownTimeout = d
		}
	}
}

// New creates a session in scene 0 with a fresh session ID.
func New(backend intent.Backend, ports action.Ports, opts ...Option) (*Session, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}

	s := &Session{
		backend:         backend,
		ports:           ports,
		logger:          slog.Default(),
		restOnTeardown:  true,
		teardownTimeout: DefaultTeardownTimeout,
		state:           State{SessionID: uuid.NewString()},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session", "session_id", s.state.SessionID)
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionID
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Backend returns the dialogue backend.
func (s *Session) Backend() intent.Backend {
	return s.backend
}

// Ports returns the actuator ports.
func (s *Session) Ports() action.Ports {
	return s.ports
}

func (s *Session) advance() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminated {
		s.state.Scene++
	}
	return s.state
}

// end marks the session terminated after a completed closing sequence.
func (s *Session) end() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Terminated = true
	s.ended = true
	return s.state
}

// abort marks the session terminated without a closing sequence.
func (s *Session) abort() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Terminated = true
	return s.state
}

// Close tears the session down: the robot is put to rest unless the end
// intent already did so, then the backend and registered closers are
// released. Only the first call has any effect; later calls return the
// first call's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state.Terminated = true
		ended := s.ended
		s.teardowns++
		s.mu.Unlock()

		s.logger.Info("tearing down session")

		if s.restOnTeardown && !ended && s.ports.Motion != nil {
			ctx, cancel := context.WithTimeout(context.Background(), s.teardownTimeout)
			if err := s.ports.Motion.Rest(ctx, true); err != nil {
				s.logger.Warn("rest during teardown failed", "error", err)
			}
			cancel()
		}

		var errs []error
		if err := s.backend.Close(); err != nil {
			s.logger.Warn("closing backend failed", "error", err)
			errs = append(errs, err)
		}
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				s.logger.Warn("closing resource failed", "error", err)
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Teardowns returns how many times teardown has run (0 or 1).
func (s *Session) Teardowns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teardowns
}
