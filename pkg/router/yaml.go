package router

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// scriptFile is the YAML representation of a Script.
type scriptFile struct {
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description"`
	AdvanceIntent string      `yaml:"advance_intent"`
	EndIntent     string      `yaml:"end_intent"`
	Opening       []stepFile  `yaml:"opening"`
	Routes        []routeFile `yaml:"routes"`
}

type routeFile struct {
	// Scene is omitted for scene-independent routes.
	Scene   *int       `yaml:"scene"`
	Intents []string   `yaml:"intents"`
	Actions []stepFile `yaml:"actions"`
}

// stepFile holds exactly one action kind plus its modifiers.
type stepFile struct {
	Say       string    `yaml:"say"`
	SayParam  string    `yaml:"say_param"`
	Posture   string    `yaml:"posture"`
	Speed     float64   `yaml:"speed"`
	Animate   string    `yaml:"animate"`
	Move      []float64 `yaml:"move"`
	Rest      bool      `yaml:"rest"`
	TrackFace bool      `yaml:"track_face"`
	LED       string    `yaml:"led"`
	On        *bool     `yaml:"on"`
	Fade      string    `yaml:"fade"`
	RGB       []float64 `yaml:"rgb"`
	Duration  string    `yaml:"duration"`
	Play      string    `yaml:"play"`

	Block    bool `yaml:"block"`
	Critical bool `yaml:"critical"`
}

// LoadScript reads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("router: open script: %w", err)
	}
	defer f.Close()

	s, err := ParseScript(f)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

// ParseScript decodes a YAML script.
func ParseScript(r io.Reader) (*Script, error) {
	var sf scriptFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	s := &Script{
		Name:          sf.Name,
		Description:   sf.Description,
		AdvanceIntent: sf.AdvanceIntent,
		EndIntent:     sf.EndIntent,
		Table:         NewTable(),
	}

	for i, st := range sf.Opening {
		t, err := st.template(fmt.Sprintf("opening[%d]", i))
		if err != nil {
			return nil, err
		}
		s.Opening = append(s.Opening, t)
	}

	for i, rf := range sf.Routes {
		where := fmt.Sprintf("routes[%d]", i)
		if len(rf.Intents) == 0 {
			return nil, &StepError{Where: where, Message: "no intents"}
		}
		scene := AnyScene
		if rf.Scene != nil {
			if *rf.Scene < 0 {
				return nil, &StepError{Where: where, Message: "scene must be >= 0"}
			}
			scene = *rf.Scene
		}

		templates := make([]Template, 0, len(rf.Actions))
		for j, st := range rf.Actions {
			t, err := st.template(fmt.Sprintf("%s.actions[%d]", where, j))
			if err != nil {
				return nil, err
			}
			templates = append(templates, t)
		}
		s.Table.AddAll(scene, rf.Intents, templates...)
	}

	return s, nil
}

func (st stepFile) template(where string) (Template, error) {
	var (
		t     Template
		kinds int
	)
	set := func(tmpl Template) {
		t = tmpl
		kinds++
	}

	if st.Say != "" {
		set(Say(st.Say))
	}
	if st.SayParam != "" {
		set(SayParam(st.SayParam))
	}
	if st.Posture != "" {
		speed := st.Speed
		if speed == 0 {
			speed = DefaultPostureSpd
		}
		set(Posture(st.Posture, speed))
	}
	if st.Animate != "" {
		set(Animate(st.Animate))
	}
	if st.Move != nil {
		if len(st.Move) != 3 {
			return Template{}, &StepError{Where: where, Message: "move needs [dx, dy, dtheta]"}
		}
		set(Move(st.Move[0], st.Move[1], st.Move[2]))
	}
	if st.Rest {
		set(Rest())
	}
	if st.TrackFace {
		set(TrackFace())
	}
	if st.LED != "" {
		on := true
		if st.On != nil {
			on = *st.On
		}
		set(LED(st.LED, on))
	}
	if st.Fade != "" {
		if len(st.RGB) != 3 {
			return Template{}, &StepError{Where: where, Message: "fade needs rgb: [r, g, b]"}
		}
		d := time.Duration(0)
		if st.Duration != "" {
			var err error
			if d, err = time.ParseDuration(st.Duration); err != nil {
				return Template{}, &StepError{Where: where, Message: "bad duration: " + err.Error()}
			}
		}
		set(Fade(st.Fade, st.RGB[0], st.RGB[1], st.RGB[2], d))
	}
	if st.Play != "" {
		set(Play(st.Play))
	}

	switch kinds {
	case 0:
		return Template{}, &StepError{Where: where, Message: "no action"}
	case 1:
	default:
		return Template{}, &StepError{Where: where, Message: "more than one action in step"}
	}

	if st.Block {
		t = t.Block()
	}
	if st.Critical {
		t = t.Critical()
	}
	return t, nil
}
