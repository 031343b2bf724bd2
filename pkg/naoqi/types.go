package naoqi

// Request bodies for the bridge endpoints.

type blockRequest struct {
	Block bool `json:"block"`
}

type sayRequest struct {
	Text  string `json:"text"`
	Block bool   `json:"block"`
}

type postureRequest struct {
	Name  string  `json:"name"`
	Speed float64 `json:"speed"`
	Block bool    `json:"block"`
}

type animationRequest struct {
	Name  string `json:"name"`
	Block bool   `json:"block"`
}

type moveRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
	Block bool    `json:"block"`
}

type ledRequest struct {
	Group string `json:"group"`
	On    bool   `json:"on"`
	Block bool   `json:"block"`
}

type fadeRequest struct {
	Group    string  `json:"group"`
	R        float64 `json:"r"`
	G        float64 `json:"g"`
	B        float64 `json:"b"`
	Duration float64 `json:"duration"`
	Block    bool    `json:"block"`
}

// playRequest carries PCM16 mono samples; encoding/json sends them base64.
type playRequest struct {
	PCM        []byte `json:"pcm"`
	SampleRate int    `json:"sample_rate"`
	Block      bool   `json:"block"`
}

// Status is the bridge status report.
type Status struct {
	State   string `json:"state"`
	Posture string `json:"posture"`
	Battery int    `json:"battery"`
}
