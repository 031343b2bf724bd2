// Package action defines the actuation commands the orchestrator issues to a
// robot and the executor that dispatches them.
//
// An Action targets exactly one actuator channel (speech, motion, LEDs or
// audio playback). Actions are either blocking, in which case the executor
// waits for the robot to finish before returning, or non-blocking, in which
// case the command is posted and the executor moves on immediately. Ordering
// is never affected by the blocking flag: actions are always issued in the
// order they are given.
package action

import (
	"fmt"
	"time"
)

// Channel identifies an independently addressable actuator subsystem.
type Channel string

const (
	ChannelSpeech Channel = "speech"
	ChannelMotion Channel = "motion"
	ChannelLEDs   Channel = "leds"
	ChannelAudio  Channel = "audio"
)

// Payload is channel-specific action data.
type Payload interface {
	// Channel returns the actuator channel this payload is addressed to.
	Channel() Channel

	// Summary returns a short human-readable description for logs.
	Summary() string
}

// Action is a single instruction to one actuator channel.
type Action struct {
	// Payload carries the channel-specific data.
	Payload Payload

	// Blocking makes the executor wait for completion before returning.
	Blocking bool

	// Critical escalates a failure of this action to a fatal session error.
	Critical bool
}

// Channel returns the channel of the action's payload.
func (a Action) Channel() Channel {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Channel()
}

// String implements fmt.Stringer.
func (a Action) String() string {
	mode := "async"
	if a.Blocking {
		mode = "block"
	}
	if a.Payload == nil {
		return fmt.Sprintf("<nil payload> (%s)", mode)
	}
	s := fmt.Sprintf("%s %s (%s)", a.Payload.Channel(), a.Payload.Summary(), mode)
	if a.Critical {
		s += " [critical]"
	}
	return s
}

// Speech is a text-to-speech request.
type Speech struct {
	Text string
}

// Channel implements Payload.
func (Speech) Channel() Channel { return ChannelSpeech }

// Summary implements Payload.
func (s Speech) Summary() string { return fmt.Sprintf("say %q", truncate(s.Text, 40)) }

// MotionKind selects the motion primitive.
type MotionKind string

const (
	MotionPosture   MotionKind = "posture"
	MotionAnimation MotionKind = "animation"
	MotionMove      MotionKind = "move"
	MotionRest      MotionKind = "rest"
	MotionTrackFace MotionKind = "track_face"
)

// Motion is a body motion request. Which fields are used depends on Kind:
// Posture uses Name and Speed, Animation uses Name, Move uses DX/DY/DTheta.
type Motion struct {
	Kind   MotionKind
	Name   string
	Speed  float64
	DX     float64
	DY     float64
	DTheta float64
}

// Channel implements Payload.
func (Motion) Channel() Channel { return ChannelMotion }

// Summary implements Payload.
func (m Motion) Summary() string {
	switch m.Kind {
	case MotionPosture:
		return fmt.Sprintf("posture %s @%.2f", m.Name, m.Speed)
	case MotionAnimation:
		return "animation " + m.Name
	case MotionMove:
		return fmt.Sprintf("move (%.2f, %.2f, %.2f)", m.DX, m.DY, m.DTheta)
	default:
		return string(m.Kind)
	}
}

// RGBFade fades an LED group to a color over Duration.
// Color components are in the 0-1 range.
type RGBFade struct {
	R, G, B  float64
	Duration time.Duration
}

// LED switches an LED group on or off, or fades it to a color when Fade is set.
type LED struct {
	Group string
	On    bool
	Fade  *RGBFade
}

// Channel implements Payload.
func (LED) Channel() Channel { return ChannelLEDs }

// Summary implements Payload.
func (l LED) Summary() string {
	if l.Fade != nil {
		return fmt.Sprintf("%s fade rgb(%.2f,%.2f,%.2f) over %s", l.Group, l.Fade.R, l.Fade.G, l.Fade.B, l.Fade.Duration)
	}
	if l.On {
		return l.Group + " on"
	}
	return l.Group + " off"
}

// Audio plays a PCM16 buffer through the robot speaker.
type Audio struct {
	// Name identifies the clip in logs.
	Name       string
	PCM        []byte
	SampleRate int
}

// Channel implements Payload.
func (Audio) Channel() Channel { return ChannelAudio }

// Summary implements Payload.
func (a Audio) Summary() string {
	if len(a.PCM) == 0 {
		return "play " + a.Name
	}
	return fmt.Sprintf("play %s (%d bytes @ %d Hz)", a.Name, len(a.PCM), a.SampleRate)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
