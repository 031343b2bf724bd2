package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/router"
)

// Loop is the turn-taking driver of a session.
//
// Each cycle requests one intent from the backend, routes it, executes the
// resulting actions in order, applies scene effects and finally speaks the
// backend's fulfillment message if no routed action spoke. The loop exits
// when the session is terminated or a fatal error occurs, and always tears
// the session down before returning.
type Loop struct {
	session  *Session
	router   *router.Router
	executor *action.Executor
	opening  []router.Template
	observer Observer
	logger   *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver attaches an observer. Multiple observers are combined.
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) {
		if o == nil {
			return
		}
		if _, nop := l.observer.(NopObserver); nop {
			l.observer = o
			return
		}
		l.observer = Observers{l.observer, o}
	}
}

// WithOpening sets actions executed once before the first turn.
func WithOpening(templates ...router.Template) LoopOption {
	return func(l *Loop) {
		l.opening = templates
	}
}

// NewLoop creates a turn loop for the session.
func NewLoop(s *Session, r *router.Router, exec *action.Executor, opts ...LoopOption) *Loop {
	l := &Loop{
		session:  s,
		router:   r,
		executor: exec,
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "session.loop", "session_id", s.ID())
	return l
}

// Run drives the session until it terminates. It returns nil when the
// session ended through the end intent, and the fatal error otherwise.
// Cancelling ctx interrupts the wait for the next intent; an action that is
// already executing runs to completion.
func (l *Loop) Run(ctx context.Context) (err error) {
	s := l.session

	noticeCtx, stopNotices := context.WithCancel(ctx)
	noticesDone := make(chan struct{})
	go l.consumeNotices(noticeCtx, s.backend.Notices(), noticesDone)

	defer func() {
		if err != nil {
			s.abort()
		}
		stopNotices()
		<-noticesDone
		s.Close()
		l.observer.SessionEnded(s.State(), err)
	}()

	l.observer.SessionStarted(s.State())
	l.logger.Info("session started")

	// Actions run to completion even when the caller cancels.
	actx := context.WithoutCancel(ctx)

	if len(l.opening) > 0 {
		if err := l.execute(actx, l.router.Resolve(l.opening, intent.Event{})); err != nil {
			return err
		}
	}

	for {
		if s.State().Terminated {
			l.logger.Info("session terminated")
			return nil
		}
		if err := ctx.Err(); err != nil {
			l.logger.Info("session interrupted", "reason", err)
			return err
		}
		if err := l.turn(ctx, actx); err != nil {
			return err
		}
	}
}

func (l *Loop) turn(ctx, actx context.Context) error {
	s := l.session
	st := s.State()

	l.logger.Info("your turn to talk", "scene", st.Scene)
	ev, err := s.backend.DetectIntent(ctx, st.SessionID)
	if err != nil {
		l.logger.Error("intent detection failed", "error", err)
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	l.observer.IntentDetected(st, ev)

	var route router.Route
	if ev.HasIntent() {
		l.logger.Info("intent detected", "intent", ev.Intent, "confidence", ev.ConfidenceString())
		route = l.router.Route(st.Scene, ev)
		if !route.Matched {
			l.logger.Info("unhandled intent: "+ev.Intent, "intent", ev.Intent, "scene", st.Scene)
		}
	} else {
		l.logger.Info("no intent detected")
	}
	l.observer.Routed(st, ev, route)

	if err := l.execute(actx, route.Actions); err != nil {
		return err
	}
	spoke := route.Speaks()

	for _, eff := range route.Effects {
		switch eff {
		case router.EffectAdvance:
			next := s.advance()
			if len(route.Actions) == 0 {
				l.logger.Info("moving to next scene", "scene", next.Scene)
			} else {
				l.logger.Info("scene advanced", "scene", next.Scene)
			}
		case router.EffectTerminate:
			s.end()
			l.logger.Info("end of conversation requested", "intent", ev.Intent)
		}
		l.observer.StateChanged(s.State())
	}

	if ev.Transcript != "" {
		l.logger.Info("user said", "transcript", ev.Transcript)
		l.observer.TranscriptRecorded(s.State(), ev.Transcript)
	}

	switch {
	case ev.FulfillmentMessage == "":
		l.logger.Debug("no fulfillment message")
	case spoke:
		l.logger.Debug("fulfillment message superseded by routed speech", "fulfillment", ev.FulfillmentMessage)
	default:
		l.logger.Info("reply", "text", ev.FulfillmentMessage)
		reply := action.Action{Payload: action.Speech{Text: ev.FulfillmentMessage}, Blocking: true}
		if err := l.execute(actx, []action.Action{reply}); err != nil {
			return err
		}
	}

	if len(ev.Parameters) > 0 {
		l.logger.Info("parameters", "params", ev.Parameters)
	}
	return nil
}

// execute runs actions in order and reports each outcome. Only fatal
// failures are returned.
func (l *Loop) execute(ctx context.Context, actions []action.Action) error {
	for _, a := range actions {
		start := time.Now()
		out, err := l.executor.Execute(ctx, a)
		l.observer.ActionExecuted(l.session.State(), a, out, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) consumeNotices(ctx context.Context, notices <-chan intent.Notice, done chan<- struct{}) {
	defer close(done)
	if notices == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			l.observer.NoticeReceived(n)
			if n.Final {
				l.logger.Info("transcript", "text", n.Transcript)
			}
		}
	}
}
