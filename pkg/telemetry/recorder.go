package telemetry

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/router"
	"github.com/teslashibe/go-nao/pkg/session"
)

// DefaultHistory is the number of recent events kept for the dashboard.
const DefaultHistory = 100

// Snapshot is a copy of what the recorder has seen, for the dashboard.
type Snapshot struct {
	State          session.State `json:"state"`
	Running        bool          `json:"running"`
	LastIntent     string        `json:"last_intent,omitempty"`
	LastConfidence string        `json:"last_confidence,omitempty"`
	LastTranscript string        `json:"last_transcript,omitempty"`
	Turns          int           `json:"turns"`
	Unhandled      int           `json:"unhandled"`
	FailedActions  int           `json:"failed_actions"`
	Error          string        `json:"error,omitempty"`
	LatestFinal    *Transcript   `json:"latest_final,omitempty"`
	Recent         []Event       `json:"recent"`
}

// Transcript is the last final recognition result of the backend.
type Transcript struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Recorder is a session.Observer that updates metrics, keeps a snapshot
// and forwards every event to its sinks. It is safe for concurrent use.
type Recorder struct {
	metrics *Metrics
	logger  *slog.Logger
	history int

	mu     sync.Mutex
	snap   Snapshot
	sinks  []Sink
	source intent.TranscriptSource
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSink adds an event sink.
func WithSink(s Sink) RecorderOption {
	return func(r *Recorder) {
		r.sinks = append(r.sinks, s)
	}
}

// WithHistory sets how many recent events the snapshot keeps.
func WithHistory(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.history = n
		}
	}
}

// WithTranscriptSource reports the source's latest final transcript in
// every snapshot.
func WithTranscriptSource(src intent.TranscriptSource) RecorderOption {
	return func(r *Recorder) {
		r.source = src
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder creates a recorder. A nil metrics disables metrics.
func NewRecorder(m *Metrics, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		metrics: m,
		logger:  slog.Default(),
		history: DefaultHistory,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "telemetry")
	return r
}

// AddSink attaches a sink after construction.
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snap
	snap.Recent = append([]Event(nil), r.snap.Recent...)
	if r.source != nil {
		if n, ok := r.source.LatestFinal(); ok {
			snap.LatestFinal = &Transcript{Text: n.Transcript, At: n.At}
		}
	}
	return snap
}

func (r *Recorder) SessionStarted(st session.State) {
	if r.metrics != nil {
		r.metrics.ActiveSessions.Inc()
		r.metrics.Scene.Set(float64(st.Scene))
	}
	r.emit(stateEvent(KindSessionStarted, st), func(s *Snapshot) {
		*s = Snapshot{State: st, Running: true, Recent: s.Recent}
	})
}

func (r *Recorder) IntentDetected(st session.State, ev intent.Event) {
	if r.metrics != nil && ev.HasIntent() {
		r.metrics.Intents.WithLabelValues(ev.Intent).Inc()
	}
	e := stateEvent(KindIntent, st)
	e.Intent = ev.Intent
	if ev.HasIntent() {
		e.Confidence = ev.ConfidenceString()
	}
	r.emit(e, func(s *Snapshot) {
		s.Turns++
		s.LastIntent = ev.Intent
		s.LastConfidence = e.Confidence
	})
}

func (r *Recorder) Routed(st session.State, ev intent.Event, route router.Route) {
	result := "none"
	switch {
	case route.Matched:
		result = "matched"
	case ev.HasIntent():
		result = "unhandled"
	}
	if r.metrics != nil {
		r.metrics.Turns.WithLabelValues(result).Inc()
	}

	e := stateEvent(KindRouted, st)
	e.Intent = ev.Intent
	e.Matched = route.Matched
	e.Actions = len(route.Actions)
	r.emit(e, func(s *Snapshot) {
		if result == "unhandled" {
			s.Unhandled++
		}
	})
}

func (r *Recorder) ActionExecuted(st session.State, a action.Action, out action.Outcome, took time.Duration) {
	channel := string(a.Channel())
	if r.metrics != nil {
		r.metrics.Actions.WithLabelValues(channel, out.Status.String()).Inc()
		r.metrics.ActionDuration.WithLabelValues(channel).Observe(took.Seconds())
	}

	e := stateEvent(KindAction, st)
	e.Channel = channel
	e.Action = a.String()
	e.Status = out.Status.String()
	e.TookMS = float64(took.Microseconds()) / 1000
	if out.Reason != nil {
		e.Reason = out.Reason.Error()
	}
	r.emit(e, func(s *Snapshot) {
		if !out.OK() {
			s.FailedActions++
		}
	})
}

func (r *Recorder) StateChanged(st session.State) {
	if r.metrics != nil {
		r.metrics.Scene.Set(float64(st.Scene))
	}
	r.emit(stateEvent(KindState, st), func(s *Snapshot) {
		s.State = st
	})
}

func (r *Recorder) TranscriptRecorded(st session.State, text string) {
	e := stateEvent(KindTranscript, st)
	e.Transcript = text
	r.emit(e, func(s *Snapshot) {
		s.LastTranscript = text
	})
}

func (r *Recorder) NoticeReceived(n intent.Notice) {
	if r.metrics != nil {
		r.metrics.Notices.WithLabelValues(strconv.FormatBool(n.Final)).Inc()
	}
	e := Event{Kind: KindNotice, At: n.At, Transcript: n.Transcript, Final: n.Final}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r.mu.Lock()
	e.SessionID = r.snap.State.SessionID
	e.Scene = r.snap.State.Scene
	r.mu.Unlock()
	r.emit(e, func(*Snapshot) {})
}

func (r *Recorder) SessionEnded(st session.State, err error) {
	result := "ok"
	e := stateEvent(KindSessionEnded, st)
	if err != nil {
		result = "error"
		e.Error = err.Error()
	}
	if r.metrics != nil {
		r.metrics.ActiveSessions.Dec()
		r.metrics.Sessions.WithLabelValues(result).Inc()
	}
	r.emit(e, func(s *Snapshot) {
		s.State = st
		s.Running = false
		s.Error = e.Error
	})
}

// emit applies update to the snapshot, records the event and publishes it.
// Sinks are called outside the lock.
func (r *Recorder) emit(e Event, update func(*Snapshot)) {
	r.mu.Lock()
	update(&r.snap)
	r.snap.Recent = append(r.snap.Recent, e)
	if over := len(r.snap.Recent) - r.history; over > 0 {
		r.snap.Recent = append([]Event(nil), r.snap.Recent[over:]...)
	}
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	for _, s := range sinks {
		if err := s.Publish(e); err != nil {
			r.logger.Warn("event sink failed", "kind", e.Kind, "error", err)
		}
	}
}

func stateEvent(kind string, st session.State) Event {
	return Event{
		Kind:       kind,
		At:         time.Now(),
		SessionID:  st.SessionID,
		Scene:      st.Scene,
		Terminated: st.Terminated,
	}
}

var _ session.Observer = (*Recorder)(nil)
