package action

import (
	"context"
	"time"
)

// Actuator ports are kept small so consumers depend only on the channels
// they drive. A port call with blocking=false must return as soon as the
// command has been handed to the robot, without waiting for it to finish.

// SpeechPort drives text-to-speech.
type SpeechPort interface {
	Say(ctx context.Context, text string, blocking bool) error
}

// MotionPort drives postures, animations and locomotion.
type MotionPort interface {
	Posture(ctx context.Context, name string, speed float64, blocking bool) error
	Animate(ctx context.Context, id string, blocking bool) error
	Move(ctx context.Context, dx, dy, dtheta float64, blocking bool) error
	Rest(ctx context.Context, blocking bool) error
	TrackFace(ctx context.Context, blocking bool) error
}

// LEDPort drives LED groups.
type LEDPort interface {
	SetLED(ctx context.Context, group string, on bool, blocking bool) error
	FadeRGB(ctx context.Context, group string, r, g, b float64, duration time.Duration, blocking bool) error
}

// AudioPort plays raw PCM16 audio.
type AudioPort interface {
	Play(ctx context.Context, pcm []byte, sampleRate int, blocking bool) error
}

// Robot is the composite of all actuator ports.
type Robot interface {
	SpeechPort
	MotionPort
	LEDPort
	AudioPort
}

// Ports bundles one port per channel. A nil port makes actions on that
// channel fail with ErrNoPort.
type Ports struct {
	Speech SpeechPort
	Motion MotionPort
	LEDs   LEDPort
	Audio  AudioPort
}

// PortsFor returns a Ports bundle backed by a single robot implementation.
func PortsFor(r Robot) Ports {
	return Ports{Speech: r, Motion: r, LEDs: r, Audio: r}
}
