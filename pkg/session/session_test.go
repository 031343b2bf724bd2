package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/router"
)

// recorder is an Observer that keeps everything it sees.
type recorder struct {
	NopObserver

	mu          sync.Mutex
	outcomes    []action.Outcome
	actions     []action.Action
	states      []State
	transcripts []string
	notices     []intent.Notice
	ended       int
	endErr      error
}

func (r *recorder) ActionExecuted(_ State, a action.Action, out action.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	r.outcomes = append(r.outcomes, out)
}

func (r *recorder) StateChanged(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) TranscriptRecorded(_ State, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, text)
}

func (r *recorder) NoticeReceived(n intent.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) SessionEnded(_ State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
	r.endErr = err
}

type harness struct {
	backend  *intent.Mock
	robot    *action.Mock
	session  *Session
	loop     *Loop
	observer *recorder
	logs     *bytes.Buffer
}

func newHarness(t *testing.T, script *router.Script, turns ...intent.Turn) *harness {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	h := &harness{
		backend:  intent.NewMock(turns...),
		robot:    action.NewMock(),
		observer: &recorder{},
		logs:     logs,
	}

	s, err := New(h.backend, action.PortsFor(h.robot), WithLogger(logger), WithSessionID("test-session"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.session = s

	exec := action.NewExecutor(action.PortsFor(h.robot), action.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	chime := router.WithClip(router.ChimeClip, router.Clip{PCM: make([]byte, 320), SampleRate: 16000})
	h.loop = NewLoop(s, script.Router(chime), exec, WithLoopLogger(logger), WithObserver(h.observer))
	return h
}

func turn(name string) intent.Turn {
	return intent.Turn{Event: intent.Event{Intent: name}}
}

func TestLoop_AdvanceIntoSceneOne(t *testing.T) {
	h := newHarness(t, router.Performance(),
		intent.Turn{Event: intent.Event{Intent: "ready", FulfillmentMessage: "Let's begin"}},
		turn("bye"),
	)

	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	calls := h.robot.Calls()
	want := []string{"Animate", "Say", "Play", "Rest"}
	if got := h.robot.Methods(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if calls[0].Blocking || calls[0].Arg != router.AnimTouchHead {
		t.Errorf("expected non-blocking TouchHead, got %+v", calls[0])
	}
	if !calls[1].Blocking || calls[1].Arg != router.WakeUpLine {
		t.Errorf("expected blocking wake-up line, got %+v", calls[1])
	}

	if !calls[2].Blocking || calls[2].Arg != "320@16000" {
		t.Errorf("expected blocking chime, got %+v", calls[2])
	}
	for i, out := range h.observer.outcomes {
		if !out.OK() {
			t.Errorf("outcome %d = %v", i, out.Status)
		}
	}

	st := h.session.State()
	if st.Scene != 1 || !st.Terminated {
		t.Errorf("state = %+v", st)
	}
	if h.robot.CallCount("Say") != 1 {
		t.Error("fulfillment must not be spoken when the route already speaks")
	}
}

func TestLoop_EndTerminatesWithoutFurtherRequests(t *testing.T) {
	h := newHarness(t, router.Performance(), turn("bye"), turn("ready"))

	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.backend.Requests() != 1 {
		t.Errorf("requests = %d, want 1", h.backend.Requests())
	}
	if !h.session.State().Terminated {
		t.Error("expected terminated")
	}
	if h.robot.CallCount("Rest") != 1 {
		t.Errorf("rest calls = %d, want 1", h.robot.CallCount("Rest"))
	}
	if h.session.Teardowns() != 1 || h.backend.CloseCount() != 1 {
		t.Errorf("teardowns = %d, backend closes = %d", h.session.Teardowns(), h.backend.CloseCount())
	}
	if h.observer.ended != 1 || h.observer.endErr != nil {
		t.Errorf("ended = %d, err = %v", h.observer.ended, h.observer.endErr)
	}
}

func TestLoop_UnhandledIntent(t *testing.T) {
	h := newHarness(t, router.Performance(), turn("xyz"), turn("bye"))

	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.robot.Methods(); !reflect.DeepEqual(got, []string{"Rest"}) {
		t.Errorf("calls = %v", got)
	}
	if !strings.Contains(h.logs.String(), "unhandled intent: xyz") {
		t.Errorf("log does not mention unhandled intent:\n%s", h.logs.String())
	}
	if h.backend.Requests() != 2 {
		t.Errorf("requests = %d, want 2", h.backend.Requests())
	}
}

func TestLoop_TranscriptWithoutIntent(t *testing.T) {
	h := newHarness(t, router.Performance(),
		intent.Turn{Event: intent.Event{Transcript: "hello"}},
		turn("bye"),
	)

	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(h.observer.transcripts, []string{"hello"}) {
		t.Errorf("transcripts = %v", h.observer.transcripts)
	}
	if got := h.robot.Methods(); !reflect.DeepEqual(got, []string{"Rest"}) {
		t.Errorf("calls = %v", got)
	}
	if !strings.Contains(h.logs.String(), "no intent detected") {
		t.Error("expected no-intent log")
	}
}

func TestLoop_FailedMotionDoesNotStopBatch(t *testing.T) {
	script := &router.Script{
		Name: "wave",
		Table: router.NewTable().Add(router.AnyScene, "wave",
			router.Animate("Hey_1").Block(),
			router.Say("Hello!").Block(),
		),
	}
	h := newHarness(t, script, turn("wave"), turn("bye"))
	h.robot.FailFunc = action.FailMethod("Animate", errors.New("fell over"))

	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(h.observer.outcomes) < 2 {
		t.Fatalf("outcomes = %v", h.observer.outcomes)
	}
	if h.observer.outcomes[0].Status != action.StatusFailed {
		t.Errorf("animation outcome = %v", h.observer.outcomes[0].Status)
	}
	if !h.observer.outcomes[1].OK() {
		t.Errorf("speech outcome = %v", h.observer.outcomes[1].Status)
	}
	if h.robot.CallCount("Say") != 1 {
		t.Error("speech should still execute")
	}
}

func TestLoop_FulfillmentFallback(t *testing.T) {
	t.Run("spoken once when route is silent", func(t *testing.T) {
		h := newHarness(t, router.Tired(),
			intent.Turn{Event: intent.Event{Intent: "welcome_intent", FulfillmentMessage: "Hi! How are you?"}},
			turn("small_talk.greetings.bye"),
		)
		if err := h.loop.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}

		var says []action.MockCall
		for _, c := range h.robot.Calls() {
			if c.Method == "Say" {
				says = append(says, c)
			}
		}
		// Opening is not configured, so the only speech is the fallback.
		if len(says) != 1 || says[0].Arg != "Hi! How are you?" || !says[0].Blocking {
			t.Errorf("speech calls = %+v", says)
		}
	})

	t.Run("spoken when no intent", func(t *testing.T) {
		h := newHarness(t, router.Tired(),
			intent.Turn{Event: intent.Event{FulfillmentMessage: "Could you repeat that?"}},
			turn("small_talk.greetings.bye"),
		)
		if err := h.loop.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if h.robot.CallCount("Say") != 1 {
			t.Errorf("say calls = %d", h.robot.CallCount("Say"))
		}
	})

	t.Run("suppressed by routed speech", func(t *testing.T) {
		h := newHarness(t, router.Tired(),
			intent.Turn{Event: intent.Event{
				Intent:             "small_talk.appraisal.thank_you",
				FulfillmentMessage: "You're welcome",
				Parameters:         map[string]any{intent.GenerativeParam: "Any time!"},
			}},
			turn("small_talk.greetings.bye"),
		)
		if err := h.loop.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		calls := h.robot.Calls()
		if h.robot.CallCount("Say") != 1 || calls[0].Arg != "Any time!" {
			t.Errorf("calls = %+v", calls)
		}
	})
}

func TestLoop_SceneNeverDecreases(t *testing.T) {
	h := newHarness(t, router.Performance(),
		turn("ready"), turn("panic"), turn("ready"), turn("ready"), turn("bye"),
	)
	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	prev := 0
	for _, st := range h.observer.states {
		if st.Scene < prev || st.Scene > prev+1 {
			t.Fatalf("scene jumped from %d to %d", prev, st.Scene)
		}
		prev = st.Scene
	}
	if h.session.State().Scene != 3 {
		t.Errorf("scene = %d, want 3", h.session.State().Scene)
	}
	if !strings.Contains(h.logs.String(), "moving to next scene") {
		t.Error("expected bare advance to log moving to next scene")
	}
}

func TestLoop_BackendFailureIsFatal(t *testing.T) {
	boom := errors.New("stream reset")
	h := newHarness(t, router.Performance(), intent.Turn{Err: boom}, turn("bye"))

	err := h.loop.Run(context.Background())
	if !errors.Is(err, ErrBackend) || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if h.backend.Requests() != 1 {
		t.Errorf("requests = %d", h.backend.Requests())
	}
	if !h.session.State().Terminated {
		t.Error("expected terminated")
	}
	// Teardown rests the robot since the end sequence never ran.
	if h.robot.CallCount("Rest") != 1 {
		t.Errorf("rest calls = %d", h.robot.CallCount("Rest"))
	}
	if h.backend.CloseCount() != 1 || h.observer.endErr == nil {
		t.Error("expected teardown and ended notification with error")
	}
}

func TestLoop_CriticalFailureIsFatal(t *testing.T) {
	h := newHarness(t, router.Performance(), turn("bye"))
	h.robot.FailFunc = action.FailMethod("Rest", errors.New("servo fault"))

	err := h.loop.Run(context.Background())
	if !action.IsCritical(err) {
		t.Fatalf("expected critical failure, got %v", err)
	}
	if h.session.Teardowns() != 1 {
		t.Errorf("teardowns = %d", h.session.Teardowns())
	}
}

func TestLoop_TransportFailureIsFatal(t *testing.T) {
	h := newHarness(t, router.Performance(), turn("ready"), turn("bye"))
	h.robot.FailFunc = action.FailMethod("Say", action.NewTransportError("tts/say", errors.New("connection refused")))

	err := h.loop.Run(context.Background())
	if !action.IsTransport(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if h.robot.CallCount("Play") != 0 {
		t.Error("no action may run after a transport failure")
	}
	if h.backend.Requests() != 1 {
		t.Errorf("requests = %d", h.backend.Requests())
	}
}

func TestLoop_Cancellation(t *testing.T) {
	h := newHarness(t, router.Performance())
	started := make(chan struct{})
	h.backend.DetectIntentFunc = func(ctx context.Context, _ string) (intent.Event, error) {
		close(started)
		<-ctx.Done()
		return intent.Event{}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.loop.Run(ctx) }()

	<-started
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	if h.session.Teardowns() != 1 || h.backend.CloseCount() != 1 {
		t.Error("expected exactly one teardown")
	}
}

func TestLoop_OpeningRunsFirst(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := intent.NewMock(turn("bye"))
	robot := action.NewMock()

	var requestedAfter int
	backend.DetectIntentFunc = func(ctx context.Context, _ string) (intent.Event, error) {
		requestedAfter = len(robot.Calls())
		return intent.Event{Intent: "bye"}, nil
	}

	s, err := New(backend, action.PortsFor(robot), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	script := router.Performance()
	exec := action.NewExecutor(action.PortsFor(robot), action.WithLogger(logger))
	loop := NewLoop(s, script.Router(), exec, WithLoopLogger(logger), WithOpening(script.Opening...))

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if requestedAfter != 1 {
		t.Errorf("opening calls before first request = %d, want 1", requestedAfter)
	}
	if c := robot.Calls()[0]; c.Method != "Posture" || c.Blocking {
		t.Errorf("opening = %+v", c)
	}
}

func TestLoop_ConsumesNotices(t *testing.T) {
	h := newHarness(t, router.Performance(),
		intent.Turn{
			Event:   intent.Event{Intent: "bye"},
			Notices: []intent.Notice{{Transcript: "by"}, {Transcript: "bye", Final: true}},
		},
	)
	if err := h.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	latest, ok := h.backend.Stream().LatestFinal()
	if !ok || latest.Transcript != "bye" {
		t.Errorf("latest final = %+v", latest)
	}
}

func TestSession_CloseOnce(t *testing.T) {
	backend := intent.NewMock()
	robot := action.NewMock()
	closer := &countingCloser{}

	s, err := New(backend, action.PortsFor(robot),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClosers(closer),
	)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() == "" {
		t.Error("expected generated session ID")
	}

	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if s.Teardowns() != 1 || backend.CloseCount() != 1 || closer.n != 1 {
		t.Errorf("teardowns = %d, backend = %d, closer = %d", s.Teardowns(), backend.CloseCount(), closer.n)
	}
	if robot.CallCount("Rest") != 1 {
		t.Errorf("rest calls = %d", robot.CallCount("Rest"))
	}
	if !s.State().Terminated {
		t.Error("closed session must be terminated")
	}
}

func TestSession_CloseErrors(t *testing.T) {
	backend := intent.NewMock()
	backend.CloseFunc = func() error { return errors.New("backend busy") }

	s, _ := New(backend, action.Ports{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRestOnTeardown(false),
	)
	if err := s.Close(); err == nil || !strings.Contains(err.Error(), "backend busy") {
		t.Errorf("Close() = %v", err)
	}
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(nil, action.Ports{}); !errors.Is(err, ErrNoBackend) {
		t.Errorf("err = %v", err)
	}
}

type countingCloser struct{ n int }

func (c *countingCloser) Close() error {
	c.n++
	return nil
}
