// Package dialogue provides intent.Backend implementations: Dialogflow CX,
// a remote dialogue service over WebSocket, and an offline console backend
// for rehearsals.
package dialogue

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	// ErrMissingAgent indicates the Dialogflow agent is not configured.
	ErrMissingAgent = errors.New("dialogue: agent ID is required")

	// ErrMissingProject indicates no project ID was given or found in the
	// credentials.
	ErrMissingProject = errors.New("dialogue: project ID is required")

	// ErrMissingListener indicates a Dialogflow backend without a listener.
	ErrMissingListener = errors.New("dialogue: listener is required")

	// ErrMissingURL indicates a service backend without a URL.
	ErrMissingURL = errors.New("dialogue: service URL is required")
)

// Utterance is one captured user turn: typed text or PCM16 audio.
type Utterance struct {
	Text  string
	Audio []byte
}

// Empty reports whether nothing was captured.
func (u Utterance) Empty() bool {
	return strings.TrimSpace(u.Text) == "" && len(u.Audio) == 0
}

// Listener captures the next user utterance.
type Listener interface {
	// Listen blocks until an utterance is available. io.EOF means the
	// input is exhausted.
	Listen(ctx context.Context) (Utterance, error)
}

// TextListener reads one utterance per line.
type TextListener struct {
	prompt string
	out    io.Writer

	once  sync.Once
	lines chan lineResult
	in    *bufio.Scanner
}

type lineResult struct {
	text string
	err  error
}

// NewTextListener creates a listener over r. When out is non-nil the prompt
// is written before each line is read.
func NewTextListener(r io.Reader, out io.Writer, prompt string) *TextListener {
	return &TextListener{
		prompt: prompt,
		out:    out,
		lines:  make(chan lineResult),
		in:     bufio.NewScanner(r),
	}
}

// Listen returns the next line as a text utterance.
func (l *TextListener) Listen(ctx context.Context) (Utterance, error) {
	line, err := l.ReadLine(ctx)
	if err != nil {
		return Utterance{}, err
	}
	return Utterance{Text: line}, nil
}

// ReadLine returns the next trimmed line. The read itself cannot be
// interrupted; a cancelled ctx returns early and the line is kept for the
// next call.
func (l *TextListener) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(func() { go l.scan() })

	if l.out != nil && l.prompt != "" {
		fmt.Fprint(l.out, l.prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

func (l *TextListener) scan() {
	defer close(l.lines)
	for l.in.Scan() {
		l.lines <- lineResult{text: strings.TrimSpace(l.in.Text())}
	}
	if err := l.in.Err(); err != nil {
		l.lines <- lineResult{err: err}
	}
}

var _ Listener = (*TextListener)(nil)
