package dialogue

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-nao/pkg/intent"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line       string
		intent     string
		transcript string
		generative string
	}{
		{"", "", "", ""},
		{"ready", "ready", "", ""},
		{"  bye  ", "bye", "", ""},
		{"small_talk.user.tired: I am so tired", "small_talk.user.tired", "I am so tired", "I am so tired"},
		{":just mumbling", "", "just mumbling", "just mumbling"},
		{"thank_you:thanks: really", "thank_you", "thanks: really", "thanks: really"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev := ParseLine(tt.line)
			if ev.Intent != tt.intent {
				t.Errorf("Intent = %q, want %q", ev.Intent, tt.intent)
			}
			if ev.Transcript != tt.transcript {
				t.Errorf("Transcript = %q, want %q", ev.Transcript, tt.transcript)
			}
			got, _ := ev.Param(intent.GenerativeParam)
			if got != tt.generative {
				t.Errorf("generative = %q, want %q", got, tt.generative)
			}
			if ev.HasIntent() != (ev.Confidence != nil) {
				t.Errorf("confidence %v with intent %q", ev.Confidence, ev.Intent)
			}
		})
	}
}

func TestConsole_DetectIntent(t *testing.T) {
	in := strings.NewReader("ready\n\nsmall_talk.user.tired:so tired\n")
	var out bytes.Buffer
	c := NewConsole(in, &out)
	ctx := context.Background()

	ev, err := c.DetectIntent(ctx, "s-1")
	if err != nil || ev.Intent != "ready" {
		t.Fatalf("turn 1 = %+v, %v", ev, err)
	}

	ev, err = c.DetectIntent(ctx, "s-1")
	if err != nil || ev.HasIntent() {
		t.Fatalf("turn 2 = %+v, %v", ev, err)
	}

	ev, err = c.DetectIntent(ctx, "s-1")
	if err != nil || ev.Intent != "small_talk.user.tired" {
		t.Fatalf("turn 3 = %+v, %v", ev, err)
	}

	select {
	case n := <-c.Notices():
		if n.Transcript != "so tired" || !n.Final {
			t.Errorf("notice = %+v", n)
		}
	default:
		t.Error("expected a transcript notice")
	}
	if n, ok := c.LatestFinal(); !ok || n.Transcript != "so tired" {
		t.Errorf("LatestFinal = %+v, %v", n, ok)
	}

	_, err = c.DetectIntent(ctx, "s-1")
	if !intent.IsClosed(err) {
		t.Errorf("after input ends: %v", err)
	}

	if strings.Count(out.String(), "intent> ") != 4 {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestConsole_Close(t *testing.T) {
	c := NewConsole(strings.NewReader("ready\n"), nil)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.DetectIntent(context.Background(), "s-1"); !errors.Is(err, intent.ErrBackendClosed) {
		t.Errorf("err = %v", err)
	}
	if _, ok := <-c.Notices(); ok {
		t.Error("notice channel should be closed")
	}
}

func TestTextListener_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	l := NewTextListener(pr, nil, "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Listen(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}

	// The pending line is delivered to the next call.
	go pw.Write([]byte("hello\n"))
	utt, err := l.Listen(context.Background())
	if err != nil || utt.Text != "hello" {
		t.Errorf("utterance = %+v, %v", utt, err)
	}
}
