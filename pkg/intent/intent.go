// Package intent defines the data a dialogue backend produces for each turn
// and the interface the orchestrator uses to request it.
package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// GenerativeParam is the parameter key under which the agent stores its
// generated free-text reply.
const GenerativeParam = "$request.generative."

// Event is the result of one intent detection turn.
//
// Every field is independently optional: an empty Intent means nothing was
// recognized, but Transcript, FulfillmentMessage and Parameters may still be
// set.
type Event struct {
	// Intent is the recognized intent name, empty if none.
	Intent string

	// Confidence is the recognition confidence. Nil when not reported.
	Confidence *float64

	// Parameters holds slot values extracted by the agent.
	Parameters map[string]any

	// Transcript is the recognized user utterance.
	Transcript string

	// FulfillmentMessage is the agent's suggested spoken reply.
	FulfillmentMessage string
}

// HasIntent reports whether an intent was recognized.
func (e Event) HasIntent() bool {
	return e.Intent != ""
}

// ConfidenceString formats the confidence for logs, "N/A" when absent.
func (e Event) ConfidenceString() string {
	if e.Confidence == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *e.Confidence)
}

// Param returns the parameter value as text. Missing, nil and empty values
// report false.
func (e Event) Param(key string) (string, bool) {
	v, ok := e.Parameters[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ParamKeys returns the parameter names in sorted order.
func (e Event) ParamKeys() []string {
	keys := make([]string, 0, len(e.Parameters))
	for k := range e.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Confidence is a helper for building events with a reported confidence.
func Confidence(v float64) *float64 {
	return &v
}

// Backend produces one Event per turn.
//
// DetectIntent blocks until the next user turn has been recognized or ctx
// is done. Any returned error ends the session.
type Backend interface {
	DetectIntent(ctx context.Context, sessionID string) (Event, error)

	// Notices returns the stream of intermediate recognition notices.
	// The channel is closed when the backend is closed.
	Notices() <-chan Notice

	// Close releases the backend. It is safe to call more than once.
	Close() error
}
