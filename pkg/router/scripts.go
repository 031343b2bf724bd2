package router

import (
	"fmt"
	"sort"
	"time"

	"github.com/teslashibe/go-nao/pkg/intent"
)

// Script is a named interaction: its routing table, privileged intent names
// and the opening sequence executed before the first turn.
type Script struct {
	Name        string
	Description string

	// AdvanceIntent and EndIntent override the router defaults when set.
	AdvanceIntent string
	EndIntent     string

	Opening []Template
	Table   *Table
}

// Router builds a router for the script. Extra options are applied after
// the script's own settings.
func (s *Script) Router(opts ...Option) *Router {
	base := []Option{
		WithAdvanceIntent(s.AdvanceIntent),
		WithEndIntent(s.EndIntent),
	}
	return New(s.Table, append(base, opts...)...)
}

// ChimeClip is the clip name used by the built-in scripts for the wake-up
// chime.
const ChimeClip = "chime"

// Animation identifiers used by the built-in scripts.
const (
	AnimTouchHead     = "animations/Stand/Reactions/TouchHead_2"
	AnimYouKnowWhat   = "animations/Stand/Gestures/YouKnowWhat_1"
	AnimMe            = "animations/Stand/Gestures/Me_2"
	AnimShoot         = "animations/Stand/Gestures/Shoot_1"
	AnimHey           = "animations/Stand/Gestures/Hey_1"
	AnimBodyLanguage  = "animations/Stand/BodyTalk/BodyLanguage/NAO"
	AnimEnthusiastic  = "animations/Stand/Gestures/Enthusiastic_4"
	PostureStand      = "Stand"
	DefaultPostureSpd = 0.5
)

// WakeUpLine is spoken when the performance moves into scene 1.
const WakeUpLine = "Oh no! It appears that this human is unconscious. Let me wake her up!"

// Performance returns the scripted stage play. Scene 0 waits for "ready";
// scene 1 answers the actor with generated replies and gestures.
func Performance() *Script {
	generative := SayParam(intent.GenerativeParam)

	t := NewTable()

	// Entering scene 1.
	t.Add(0, DefaultAdvanceIntent,
		Animate(AnimTouchHead),
		Say(WakeUpLine).Block(),
		Play(ChimeClip).Block(),
	)

	t.Add(1, "tired.scene1",
		generative,
		Animate(AnimYouKnowWhat).Block(),
		Play(ChimeClip).Block(),
	)
	t.Add(1, "shocked_awake",
		generative,
		Animate(AnimMe).Block(),
	)
	t.AddAll(1, []string{"acquaintance", "question", "thankful", "help", "concerned"},
		generative,
		Animate(AnimShoot).Block(),
	)
	t.Add(1, "panic", generative)

	return &Script{
		Name:        "performance",
		Description: "Wizard-of-Oz stage play driven by scene intents",
		Opening:     []Template{Posture(PostureStand, DefaultPostureSpd)},
		Table:       t,
	}
}

// EmpathyLine is spoken at the end of the tired sequence.
const EmpathyLine = "I'm here with you."

// Tired returns the small-talk empathy demo.
func Tired() *Script {
	t := NewTable()

	t.Add(AnyScene, "welcome_intent",
		Posture(PostureStand, DefaultPostureSpd),
		Animate(AnimHey),
	)
	t.Add(AnyScene, "small_talk.user.tired",
		Posture(PostureStand, DefaultPostureSpd),
		Animate(AnimBodyLanguage),
		Move(0.3, 0, 0).Block(),
		Animate(AnimEnthusiastic),
		TrackFace().Block(),
		Say(EmpathyLine).Block(),
	)
	t.Add(AnyScene, "small_talk.appraisal.thank_you",
		SayParam(intent.GenerativeParam).Block(),
	)

	return &Script{
		Name:        "tired",
		Description: "Small-talk flow with an empathy sequence for tired users",
		EndIntent:   "small_talk.greetings.bye",
		Opening:     []Template{Say("Hello, I am Nao, nice to meet you!").Block()},
		Table:       t,
	}
}

// LEDs returns the LED demonstration. It has no routes; the whole demo is
// the opening sequence.
func LEDs() *Script {
	fade := 3 * time.Second
	return &Script{
		Name:        "leds",
		Description: "Eye LED demonstration",
		Opening: []Template{
			Posture(PostureStand, DefaultPostureSpd).Block(),
			LED("FaceLeds", true).Block(),
			Move(1, 0, 0).Block(),
			Say("Setting right Eye LEDs to red").Block(),
			Fade("RightFaceLeds", 1, 0, 0, fade).Block(),
			Say("Setting left Eye LEDs to blue").Block(),
			Fade("LeftFaceLeds", 0, 0, 1, fade).Block(),
			Say("LEDs demo completed successfully").Block(),
			Rest().Block(),
			LED("FaceLeds", true).Block(),
		},
		Table: NewTable(),
	}
}

var builtins = map[string]func() *Script{
	"performance": Performance,
	"tired":       Tired,
	"leds":        LEDs,
}

// Builtin returns a built-in script by name.
func Builtin(name string) (*Script, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	return fn(), nil
}

// BuiltinNames returns the names of the built-in scripts.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
