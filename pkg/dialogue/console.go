package dialogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/teslashibe/go-nao/pkg/intent"
)

// Console is an offline backend driven by typed lines of the form
// "intent[:text]". The text is recorded as the transcript and offered as
// the generative reply. A line starting with ':' carries a transcript
// without an intent; an empty line is a turn with nothing recognized.
type Console struct {
	lines  *TextListener
	stream *intent.Stream
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewConsole creates a console backend reading from r and prompting on out.
func NewConsole(r io.Reader, out io.Writer, opts ...Option) *Console {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Console{
		lines:  NewTextListener(r, out, "intent> "),
		stream: intent.NewStream(cfg.StreamBuffer),
		logger: cfg.Logger.With("component", "dialogue.console"),
	}
}

// DetectIntent reads the next line.
func (c *Console) DetectIntent(ctx context.Context, sessionID string) (intent.Event, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return intent.Event{}, intent.ErrBackendClosed
	}

	line, err := c.lines.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return intent.Event{}, fmt.Errorf("%w: console input ended", intent.ErrBackendClosed)
	}
	if err != nil {
		return intent.Event{}, err
	}

	ev := ParseLine(line)
	if ev.Transcript != "" {
		c.stream.Publish(intent.Notice{Transcript: ev.Transcript, Final: true})
	}
	c.logger.Debug("console turn", "session_id", sessionID, "intent", ev.Intent)
	return ev, nil
}

// LatestFinal returns the last typed utterance.
func (c *Console) LatestFinal() (intent.Notice, bool) {
	return c.stream.LatestFinal()
}

// Notices returns the recognition notice stream.
func (c *Console) Notices() <-chan intent.Notice {
	return c.stream.C()
}

// Close ends the backend.
func (c *Console) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.stream.Close()
	return nil
}

// ParseLine converts a console line to an event.
func ParseLine(line string) intent.Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return intent.Event{}
	}

	name, text, _ := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)

	ev := intent.Event{Intent: name, Transcript: text}
	if name != "" {
		ev.Confidence = intent.Confidence(1)
	}
	if text != "" {
		ev.Parameters = map[string]any{intent.GenerativeParam: text}
	}
	return ev
}

var (
	_ intent.Backend          = (*Console)(nil)
	_ intent.TranscriptSource = (*Console)(nil)
)
