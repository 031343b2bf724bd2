// Package telemetry observes sessions: Prometheus metrics, a dashboard
// snapshot, and event sinks such as NATS.
package telemetry

import "time"

// Event kinds.
const (
	KindSessionStarted = "session_started"
	KindIntent         = "intent"
	KindRouted         = "routed"
	KindAction         = "action"
	KindState          = "state"
	KindTranscript     = "transcript"
	KindNotice         = "notice"
	KindSessionEnded   = "session_ended"
)

// Event is one observable session occurrence, published to sinks as JSON.
type Event struct {
	Kind       string    `json:"kind"`
	At         time.Time `json:"at"`
	SessionID  string    `json:"session_id,omitempty"`
	Scene      int       `json:"scene"`
	Terminated bool      `json:"terminated,omitempty"`

	Intent     string `json:"intent,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Matched    bool   `json:"matched,omitempty"`
	Actions    int    `json:"actions,omitempty"`

	Channel string  `json:"channel,omitempty"`
	Action  string  `json:"action,omitempty"`
	Status  string  `json:"status,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	TookMS  float64 `json:"took_ms,omitempty"`

	Transcript string `json:"transcript,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Sink receives events.
type Sink interface {
	Publish(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

// Publish calls f.
func (f SinkFunc) Publish(ev Event) error {
	return f(ev)
}
