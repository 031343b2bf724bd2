// Package router maps detected intents to ordered robot actions.
//
// Routing is a pure function of the current scene, the event and the
// routing table: it performs no I/O and returns the same route for the same
// inputs. Scene and termination changes are not applied here; they are
// returned as effects for the session loop to apply.
package router

import (
	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
)

// Default privileged intent names and fallback reply.
const (
	DefaultAdvanceIntent = "ready"
	DefaultEndIntent     = "bye"
	DefaultFallbackReply = "Sorry, I didn't catch that."
)

// Effect is a session state change requested by a route.
type Effect int

const (
	// EffectAdvance increments the scene index by one.
	EffectAdvance Effect = iota + 1

	// EffectTerminate ends the session.
	EffectTerminate
)

// String implements fmt.Stringer.
func (e Effect) String() string {
	switch e {
	case EffectAdvance:
		return "advance"
	case EffectTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Route is the result of routing one event.
type Route struct {
	// Actions are executed in order.
	Actions []action.Action

	// Effects are applied after the actions have been executed.
	Effects []Effect

	// Matched is false when the intent has no table entry and is not a
	// privileged intent.
	Matched bool
}

// Has reports whether the route carries the given effect.
func (r Route) Has(e Effect) bool {
	for _, eff := range r.Effects {
		if eff == e {
			return true
		}
	}
	return false
}

// Speaks reports whether the route contains a speech action.
func (r Route) Speaks() bool {
	for _, a := range r.Actions {
		if a.Channel() == action.ChannelSpeech {
			return true
		}
	}
	return false
}

// Clip is decoded PCM16 audio available to Play templates.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Router resolves events to routes.
type Router struct {
	table    *Table
	advance  string
	end      string
	fallback string
	closing  []Template
	clips    map[string]Clip
}

// Option configures a Router.
type Option func(*Router)

// WithAdvanceIntent sets the intent that advances the scene.
func WithAdvanceIntent(name string) Option {
	return func(r *Router) {
		if name != "" {
			r.advance = name
		}
	}
}

// WithEndIntent sets the intent that ends the conversation.
func WithEndIntent(name string) Option {
	return func(r *Router) {
		if name != "" {
			r.end = name
		}
	}
}

// WithFallbackReply sets the text spoken when a speech parameter is missing.
func WithFallbackReply(text string) Option {
	return func(r *Router) {
		if text != "" {
			r.fallback = text
		}
	}
}

// WithClosing replaces the closing sequence appended to the end intent.
func WithClosing(templates ...Template) Option {
	return func(r *Router) {
		r.closing = templates
	}
}

// WithClip registers an audio clip for Play templates.
func WithClip(name string, clip Clip) Option {
	return func(r *Router) {
		r.clips[name] = clip
	}
}

// New creates a router over table.
//
// The default closing sequence is a single blocking, critical rest.
func New(table *Table, opts ...Option) *Router {
	if table == nil {
		table = NewTable()
	}
	r := &Router{
		table:    table,
		advance:  DefaultAdvanceIntent,
		end:      DefaultEndIntent,
		fallback: DefaultFallbackReply,
		closing:  []Template{Rest().Block().Critical()},
		clips:    make(map[string]Clip),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route resolves the event in the given scene.
//
// For the advance intent the scene-specific entry is looked up in the scene
// being left. For the end intent any table entry is followed by the closing
// sequence.
func (r *Router) Route(scene int, ev intent.Event) Route {
	name := ev.Intent
	if name == "" {
		return Route{}
	}

	templates, found := r.table.Lookup(scene, name)

	switch name {
	case r.end:
		actions := r.Resolve(templates, ev)
		actions = append(actions, r.Resolve(r.closing, ev)...)
		return Route{Actions: actions, Effects: []Effect{EffectTerminate}, Matched: true}

	case r.advance:
		return Route{Actions: r.Resolve(templates, ev), Effects: []Effect{EffectAdvance}, Matched: true}
	}

	if !found {
		return Route{}
	}
	return Route{Actions: r.Resolve(templates, ev), Matched: true}
}

// Resolve turns templates into concrete actions, substituting speech
// parameters and audio clips.
func (r *Router) Resolve(templates []Template, ev intent.Event) []action.Action {
	if len(templates) == 0 {
		return nil
	}
	actions := make([]action.Action, 0, len(templates))
	for _, t := range templates {
		actions = append(actions, r.resolve(t, ev))
	}
	return actions
}

func (r *Router) resolve(t Template, ev intent.Event) action.Action {
	a := t.Action
	switch p := a.Payload.(type) {
	case action.Speech:
		if t.Param != "" {
			text, ok := ev.Param(t.Param)
			if !ok {
				text = r.fallback
			}
			p.Text = text
			a.Payload = p
		}
	case action.Audio:
		if t.Clip != "" {
			if clip, ok := r.clips[t.Clip]; ok {
				p.PCM = clip.PCM
				p.SampleRate = clip.SampleRate
				a.Payload = p
			}
		}
	case action.LED:
		if p.Fade != nil {
			fade := *p.Fade
			p.Fade = &fade
			a.Payload = p
		}
	}
	return a
}

// AdvanceIntent returns the intent name that advances the scene.
func (r *Router) AdvanceIntent() string { return r.advance }

// EndIntent returns the intent name that ends the conversation.
func (r *Router) EndIntent() string { return r.end }

// Table returns the routing table.
func (r *Router) Table() *Table { return r.table }
