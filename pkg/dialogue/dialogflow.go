package dialogue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	dialogflow "google.golang.org/api/dialogflow/v3"
	"google.golang.org/api/option"

	"github.com/teslashibe/go-nao/pkg/intent"
)

// Dialogflow detects intents with the Dialogflow CX v3 API. Each turn takes
// one utterance from the listener and sends it as a detectIntent query.
type Dialogflow struct {
	svc      *dialogflow.Service
	agent    string
	language string
	rate     int
	listener Listener
	stream   *intent.Stream
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewDialogflow creates a Dialogflow CX backend.
func NewDialogflow(ctx context.Context, opts ...Option) (*Dialogflow, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.AgentID == "" {
		return nil, ErrMissingAgent
	}
	if cfg.Listener == nil {
		return nil, ErrMissingListener
	}

	clientOpts := []option.ClientOption{option.WithEndpoint(endpointFor(cfg))}
	switch {
	case cfg.NoAuth:
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	case cfg.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.HTTPClient))
	default:
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("dialogue: load credentials: %w", err)
		}
		if cfg.ProjectID == "" {
			cfg.ProjectID = creds.ProjectID
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	if cfg.ProjectID == "" {
		return nil, ErrMissingProject
	}

	svc, err := dialogflow.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialogue: create dialogflow client: %w", err)
	}

	agent := fmt.Sprintf("projects/%s/locations/%s/agents/%s", cfg.ProjectID, cfg.Location, cfg.AgentID)
	return &Dialogflow{
		svc:      svc,
		agent:    agent,
		language: cfg.Language,
		rate:     cfg.SampleRate,
		listener: cfg.Listener,
		stream:   intent.NewStream(cfg.StreamBuffer),
		logger:   cfg.Logger.With("component", "dialogue.dialogflow", "agent", agent),
	}, nil
}

// endpointFor returns the regional endpoint; global agents use the default host.
func endpointFor(cfg Config) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if cfg.Location == "" || cfg.Location == "global" {
		return "https://dialogflow.googleapis.com/"
	}
	return fmt.Sprintf("https://%s-dialogflow.googleapis.com/", cfg.Location)
}

// SessionPath returns the CX session resource name.
func (d *Dialogflow) SessionPath(sessionID string) string {
	return d.agent + "/sessions/" + sessionID
}

// DetectIntent listens for one utterance and detects its intent. An empty
// utterance is a turn with nothing recognized.
func (d *Dialogflow) DetectIntent(ctx context.Context, sessionID string) (intent.Event, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return intent.Event{}, intent.ErrBackendClosed
	}

	utt, err := d.listener.Listen(ctx)
	if errors.Is(err, io.EOF) {
		return intent.Event{}, fmt.Errorf("%w: listener ended", intent.ErrBackendClosed)
	}
	if err != nil {
		return intent.Event{}, fmt.Errorf("dialogue: listen: %w", err)
	}
	if utt.Empty() {
		return intent.Event{}, nil
	}

	req := &dialogflow.GoogleCloudDialogflowCxV3DetectIntentRequest{
		QueryInput: d.queryInput(utt),
	}
	resp, err := d.svc.Projects.Locations.Agents.Sessions.
		DetectIntent(d.SessionPath(sessionID), req).
		Context(ctx).
		Do()
	if err != nil {
		return intent.Event{}, fmt.Errorf("dialogue: detect intent: %w", err)
	}

	ev, err := eventFromResponse(resp)
	if err != nil {
		return intent.Event{}, err
	}
	if ev.Transcript != "" {
		d.stream.Publish(intent.Notice{Transcript: ev.Transcript, Final: true})
	}
	d.logger.Debug("detect intent done", "session_id", sessionID, "intent", ev.Intent)
	return ev, nil
}

func (d *Dialogflow) queryInput(utt Utterance) *dialogflow.GoogleCloudDialogflowCxV3QueryInput {
	in := &dialogflow.GoogleCloudDialogflowCxV3QueryInput{LanguageCode: d.language}
	if len(utt.Audio) > 0 {
		in.Audio = &dialogflow.GoogleCloudDialogflowCxV3AudioInput{
			Audio: base64.StdEncoding.EncodeToString(utt.Audio),
			Config: &dialogflow.GoogleCloudDialogflowCxV3InputAudioConfig{
				AudioEncoding:   "AUDIO_ENCODING_LINEAR_16",
				SampleRateHertz: int64(d.rate),
			},
		}
		return in
	}
	in.Text = &dialogflow.GoogleCloudDialogflowCxV3TextInput{Text: utt.Text}
	return in
}

// queryResult is the subset of the CX QueryResult the loop consumes.
type queryResult struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
	Match      *struct {
		Intent *struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
		Confidence float64 `json:"confidence"`
		MatchType  string  `json:"matchType"`
	} `json:"match"`
	Parameters       map[string]any `json:"parameters"`
	ResponseMessages []struct {
		Text *struct {
			Text []string `json:"text"`
		} `json:"text"`
	} `json:"responseMessages"`
}

func eventFromResponse(resp *dialogflow.GoogleCloudDialogflowCxV3DetectIntentResponse) (intent.Event, error) {
	if resp == nil || resp.QueryResult == nil {
		return intent.Event{}, nil
	}
	raw, err := json.Marshal(resp.QueryResult)
	if err != nil {
		return intent.Event{}, fmt.Errorf("dialogue: encode query result: %w", err)
	}
	var qr queryResult
	if err := json.Unmarshal(raw, &qr); err != nil {
		return intent.Event{}, fmt.Errorf("dialogue: decode query result: %w", err)
	}
	return qr.event(), nil
}

func (qr queryResult) event() intent.Event {
	ev := intent.Event{
		Transcript: qr.Transcript,
		Parameters: qr.Parameters,
	}
	if ev.Transcript == "" {
		ev.Transcript = qr.Text
	}
	if m := qr.Match; m != nil && m.Intent != nil && m.MatchType != "NO_MATCH" {
		ev.Intent = m.Intent.DisplayName
		ev.Confidence = intent.Confidence(m.Confidence)
	}

	var replies []string
	for _, msg := range qr.ResponseMessages {
		if msg.Text == nil {
			continue
		}
		for _, t := range msg.Text.Text {
			if t = strings.TrimSpace(t); t != "" {
				replies = append(replies, t)
			}
		}
	}
	ev.FulfillmentMessage = strings.Join(replies, " ")
	return ev
}

// LatestFinal returns the transcript of the last detected utterance.
func (d *Dialogflow) LatestFinal() (intent.Notice, bool) {
	return d.stream.LatestFinal()
}

// Notices returns the recognition notice stream.
func (d *Dialogflow) Notices() <-chan intent.Notice {
	return d.stream.C()
}

// Close ends the backend.
func (d *Dialogflow) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.stream.Close()
	return nil
}

var (
	_ intent.Backend          = (*Dialogflow)(nil)
	_ intent.TranscriptSource = (*Dialogflow)(nil)
)
