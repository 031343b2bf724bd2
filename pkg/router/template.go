package router

import (
	"time"

	"github.com/teslashibe/go-nao/pkg/action"
)

// Template is an action blueprint stored in the routing table. It resolves
// to a concrete action.Action when an intent is routed.
type Template struct {
	// Action is the static part of the action.
	Action action.Action

	// Param, for speech templates, names the event parameter whose value
	// replaces the speech text at route time.
	Param string

	// Clip, for audio templates, names a registered clip to play.
	Clip string
}

// String describes the template. A parameter reference is shown as
// "$name".
func (t Template) String() string {
	a := t.Action
	if t.Param != "" {
		a.Payload = action.Speech{Text: "$" + t.Param}
	}
	return a.String()
}

// Block returns a copy of the template that waits for completion.
func (t Template) Block() Template {
	t.Action.Blocking = true
	return t
}

// Critical returns a copy of the template whose failure ends the session.
func (t Template) Critical() Template {
	t.Action.Critical = true
	return t
}

// Say speaks a fixed line.
func Say(text string) Template {
	return Template{Action: action.Action{Payload: action.Speech{Text: text}}}
}

// SayParam speaks the value of an event parameter.
func SayParam(param string) Template {
	return Template{
		Action: action.Action{Payload: action.Speech{}},
		Param:  param,
	}
}

// Posture moves to a predefined posture.
func Posture(name string, speed float64) Template {
	return motion(action.Motion{Kind: action.MotionPosture, Name: name, Speed: speed})
}

// Animate plays a named animation.
func Animate(id string) Template {
	return motion(action.Motion{Kind: action.MotionAnimation, Name: id})
}

// Move walks relative to the current position (meters, radians).
func Move(dx, dy, dtheta float64) Template {
	return motion(action.Motion{Kind: action.MotionMove, DX: dx, DY: dy, DTheta: dtheta})
}

// Rest puts the robot in its rest posture.
func Rest() Template {
	return motion(action.Motion{Kind: action.MotionRest})
}

// TrackFace starts face tracking.
func TrackFace() Template {
	return motion(action.Motion{Kind: action.MotionTrackFace})
}

// LED switches an LED group.
func LED(group string, on bool) Template {
	return Template{Action: action.Action{Payload: action.LED{Group: group, On: on}}}
}

// Fade fades an LED group to an RGB color.
func Fade(group string, r, g, b float64, d time.Duration) Template {
	return Template{Action: action.Action{Payload: action.LED{
		Group: group,
		On:    true,
		Fade:  &action.RGBFade{R: r, G: g, B: b, Duration: d},
	}}}
}

// Play plays a registered audio clip.
func Play(clip string) Template {
	return Template{
		Action: action.Action{Payload: action.Audio{Name: clip}},
		Clip:   clip,
	}
}

func motion(m action.Motion) Template {
	return Template{Action: action.Action{Payload: m}}
}
