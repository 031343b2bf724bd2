package archive

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-nao/pkg/telemetry"
)

// Recorder is a telemetry.Sink that builds a Record per session and saves
// it when the session ends.
type Recorder struct {
	store  Store
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*Record
}

// NewRecorder creates a recorder saving to store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		logger: logger.With("component", "archive"),
		active: make(map[string]*Record),
	}
}

// Publish implements telemetry.Sink.
func (a *Recorder) Publish(ev telemetry.Event) error {
	if ev.SessionID == "" {
		return nil
	}

	a.mu.Lock()
	rec := a.active[ev.SessionID]
	switch ev.Kind {
	case telemetry.KindSessionStarted:
		rec = &Record{SessionID: ev.SessionID, StartedAt: ev.At, FinalScene: ev.Scene}
		a.active[ev.SessionID] = rec
		a.mu.Unlock()
		return nil
	case telemetry.KindSessionEnded:
		delete(a.active, ev.SessionID)
	}
	if rec == nil {
		a.mu.Unlock()
		return nil
	}

	var last *Turn
	if n := len(rec.Turns); n > 0 {
		last = &rec.Turns[n-1]
	}

	switch ev.Kind {
	case telemetry.KindIntent:
		rec.Turns = append(rec.Turns, Turn{
			At:         ev.At,
			Scene:      ev.Scene,
			Intent:     ev.Intent,
			Confidence: ev.Confidence,
		})
	case telemetry.KindRouted:
		if last != nil {
			last.Matched = ev.Matched
			last.Actions = ev.Actions
		}
	case telemetry.KindTranscript:
		if last != nil {
			last.Transcript = ev.Transcript
		}
	case telemetry.KindAction:
		if ev.Status == "failed" {
			rec.FailedActions++
		}
	case telemetry.KindState:
		rec.FinalScene = ev.Scene
	case telemetry.KindSessionEnded:
		rec.EndedAt = ev.At
		rec.FinalScene = ev.Scene
		rec.Terminated = ev.Terminated
		rec.Error = ev.Error
	}
	a.mu.Unlock()

	if ev.Kind != telemetry.KindSessionEnded {
		return nil
	}
	if err := a.store.Save(rec); err != nil {
		return err
	}
	a.logger.Info("session archived", "session_id", rec.SessionID, "turns", len(rec.Turns))
	return nil
}

var _ telemetry.Sink = (*Recorder)(nil)
