package session

import (
	"time"

	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/router"
)

// Observer receives session lifecycle events. Implementations must be safe
// for concurrent use: NoticeReceived is called from the notice consumer
// goroutine while the other methods are called from the turn loop.
type Observer interface {
	SessionStarted(st State)
	IntentDetected(st State, ev intent.Event)
	Routed(st State, ev intent.Event, route router.Route)
	ActionExecuted(st State, a action.Action, out action.Outcome, took time.Duration)
	StateChanged(st State)
	TranscriptRecorded(st State, text string)
	NoticeReceived(n intent.Notice)
	SessionEnded(st State, err error)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) SessionStarted(State) {}
func (NopObserver) IntentDetected(State, intent.Event) {}
func (NopObserver) Routed(State, intent.Event, router.Route) {}
func (NopObserver) ActionExecuted(State, action.Action, action.Outcome, time.Duration) {}
func (NopObserver) StateChanged(State) {}
func (NopObserver) TranscriptRecorded(State, string) {}
func (NopObserver) NoticeReceived(intent.Notice) {}
func (NopObserver) SessionEnded(State, error) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) SessionStarted(st State) {
	for _, ob := range o {
		ob.SessionStarted(st)
	}
}

func (o Observers) IntentDetected(st State, ev intent.Event) {
	for _, ob := range o {
		ob.IntentDetected(st, ev)
	}
}

func (o Observers) Routed(st State, ev intent.Event, route router.Route) {
	for _, ob := range o {
		ob.Routed(st, ev, route)
	}
}

func (o Observers) ActionExecuted(st State, a action.Action, out action.Outcome, took time.Duration) {
	for _, ob := range o {
		ob.ActionExecuted(st, a, out, took)
	}
}

func (o Observers) StateChanged(st State) {
	for _, ob := range o {
		ob.StateChanged(st)
	}
}

func (o Observers) TranscriptRecorded(st State, text string) {
	for _, ob := range o {
		ob.TranscriptRecorded(st, text)
	}
}

func (o Observers) NoticeReceived(n intent.Notice) {
	for _, ob := range o {
		ob.NoticeReceived(n)
	}
}

func (o Observers) SessionEnded(st State, err error) {
	for _, ob := range o {
		ob.SessionEnded(st, err)
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = Observers(nil)
)
