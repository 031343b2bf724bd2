package action

import (
	"context"
	"fmt"
	"log/slog"
)

// Status is the result classification of one executed action.
type Status int

const (
	// StatusOK means the action completed, or was posted when non-blocking.
	StatusOK Status = iota

	// StatusFailed means the port reported a failure.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the per-action result returned by the executor.
type Outcome struct {
	Status Status

	// Reason is set when Status is StatusFailed.
	Reason error
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Executor dispatches actions to actuator ports and contains failures.
//
// A failure of a non-critical action is logged and reported in the Outcome;
// the caller is free to continue with the next action. A failure of a
// critical action, or any transport failure, is returned as a fatal error.
type Executor struct {
	ports  Ports
	logger *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor over the given ports.
func NewExecutor(ports Ports, opts ...ExecutorOption) *Executor {
	e := &Executor{
		ports:  ports,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "action.executor")
	return e
}

// Execute runs a single action.
//
// The returned error is non-nil only when the failure is fatal to the
// session: the action was critical, or the robot transport is gone. In that
// case the Outcome is StatusFailed as well.
func (e *Executor) Execute(ctx context.Context, a Action) (Outcome, error) {
	err := e.dispatch(ctx, a)
	if err == nil {
		return Outcome{Status: StatusOK}, nil
	}

	if IsTransport(err) {
		e.logger.Error("transport failure",
			"channel", a.Channel(),
			"action", a.String(),
			"error", err)
		return Outcome{Status: StatusFailed, Reason: err}, &FailureError{Action: a, Err: err}
	}

	if a.Critical {
		e.logger.Error("critical action failed",
			"channel", a.Channel(),
			"action", a.String(),
			"error", err)
		return Outcome{Status: StatusFailed, Reason: err}, &FailureError{
			Action: a,
			Err:    fmt.Errorf("%w: %w", ErrCritical, err),
		}
	}

	if !a.Blocking {
		// Posting failed; completion of non-blocking actions is not observed.
		e.logger.Warn("non-blocking action not accepted",
			"channel", a.Channel(),
			"action", a.String(),
			"error", err)
		return Outcome{Status: StatusOK}, nil
	}

	e.logger.Warn("action failed",
		"channel", a.Channel(),
		"action", a.String(),
		"error", err)
	return Outcome{Status: StatusFailed, Reason: err}, nil
}

// ExecuteAll runs actions strictly in order. It stops at the first fatal
// error and returns the outcomes of the actions executed so far.
func (e *Executor) ExecuteAll(ctx context.Context, actions []Action) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		out, err := e.Execute(ctx, a)
		outcomes = append(outcomes, out)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (e *Executor) dispatch(ctx context.Context, a Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action: port panicked: %v", r)
		}
	}()

	e.logger.Debug("dispatch", "action", a.String())

	switch p := a.Payload.(type) {
	case Speech:
		if e.ports.Speech == nil {
			return fmt.Errorf("%w: %s", ErrNoPort, ChannelSpeech)
		}
		return e.ports.Speech.Say(ctx, p.Text, a.Blocking)

	case Motion:
		if e.ports.Motion == nil {
			return fmt.Errorf("%w: %s", ErrNoPort, ChannelMotion)
		}
		return e.motion(ctx, p, a.Blocking)

	case LED:
		if e.ports.LEDs == nil {
			return fmt.Errorf("%w: %s", ErrNoPort, ChannelLEDs)
		}
		if p.Fade != nil {
			return e.ports.LEDs.FadeRGB(ctx, p.Group, p.Fade.R, p.Fade.G, p.Fade.B, p.Fade.Duration, a.Blocking)
		}
		return e.ports.LEDs.SetLED(ctx, p.Group, p.On, a.Blocking)

	case Audio:
		if e.ports.Audio == nil {
			return fmt.Errorf("%w: %s", ErrNoPort, ChannelAudio)
		}
		if len(p.PCM) == 0 {
			return fmt.Errorf("%w: audio clip %q has no samples", ErrInvalidAction, p.Name)
		}
		return e.ports.Audio.Play(ctx, p.PCM, p.SampleRate, a.Blocking)

	case nil:
		return fmt.Errorf("%w: missing payload", ErrInvalidAction)

	default:
		return fmt.Errorf("%w: unsupported payload %T", ErrInvalidAction, p)
	}
}

func (e *Executor) motion(ctx context.Context, m Motion, blocking bool) error {
	port := e.ports.Motion
	switch m.Kind {
	case MotionPosture:
		return port.Posture(ctx, m.Name, m.Speed, blocking)
	case MotionAnimation:
		return port.Animate(ctx, m.Name, blocking)
	case MotionMove:
		return port.Move(ctx, m.DX, m.DY, m.DTheta, blocking)
	case MotionRest:
		return port.Rest(ctx, blocking)
	case MotionTrackFace:
		return port.TrackFace(ctx, blocking)
	default:
		return fmt.Errorf("%w: unknown motion kind %q", ErrInvalidAction, m.Kind)
	}
}
