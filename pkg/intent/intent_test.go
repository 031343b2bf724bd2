package intent

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestEvent_Param(t *testing.T) {
	e := Event{Parameters: map[string]any{
		GenerativeParam: "  I am awake!  ",
		"empty":         "",
		"nothing":       nil,
		"count":         3,
	}}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{GenerativeParam, "I am awake!", true},
		{"empty", "", false},
		{"nothing", "", false},
		{"missing", "", false},
		{"count", "3", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := e.Param(tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Param(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEvent_ConfidenceString(t *testing.T) {
	if got := (Event{}).ConfidenceString(); got != "N/A" {
		t.Errorf("expected N/A, got %q", got)
	}
	if got := (Event{Confidence: Confidence(0.876)}).ConfidenceString(); got != "0.88" {
		t.Errorf("expected 0.88, got %q", got)
	}
}

func TestEvent_ParamKeysSorted(t *testing.T) {
	e := Event{Parameters: map[string]any{"b": 1, "a": 2, "c": 3}}
	if got := e.ParamKeys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("ParamKeys() = %v", got)
	}
}

func TestStream_OrderAndLatestFinal(t *testing.T) {
	s := NewStream(8)
	s.Publish(Notice{Transcript: "hel"})
	s.Publish(Notice{Transcript: "hello", Final: true})
	s.Publish(Notice{Transcript: "how"})
	s.Publish(Notice{Transcript: "how are you", Final: true})
	s.Close()

	var got []string
	for n := range s.C() {
		got = append(got, n.Transcript)
	}
	want := []string{"hel", "hello", "how", "how are you"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	latest, ok := s.LatestFinal()
	if !ok || latest.Transcript != "how are you" {
		t.Errorf("LatestFinal() = %+v, %v", latest, ok)
	}
}

func TestStream_DropsWhenFull(t *testing.T) {
	s := NewStream(1)
	s.Publish(Notice{Transcript: "one"})
	s.Publish(Notice{Transcript: "two", Final: true})

	if s.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", s.Dropped())
	}
	// A dropped final notice still wins.
	if latest, _ := s.LatestFinal(); latest.Transcript != "two" {
		t.Errorf("expected latest final 'two', got %q", latest.Transcript)
	}
}

func TestStream_PublishAfterClose(t *testing.T) {
	s := NewStream(1)
	s.Close()
	s.Close()
	s.Publish(Notice{Transcript: "late", Final: true})
	if _, ok := s.LatestFinal(); ok {
		t.Error("publish after close must be ignored")
	}
}

func TestMock_ReplaysTurns(t *testing.T) {
	boom := errors.New("boom")
	m := NewMock(
		Turn{Event: Event{Intent: "ready"}, Notices: []Notice{{Transcript: "ready", Final: true}}},
		Turn{Err: boom},
	)
	ctx := context.Background()

	ev, err := m.DetectIntent(ctx, "s1")
	if err != nil || ev.Intent != "ready" {
		t.Fatalf("turn 1 = %+v, %v", ev, err)
	}
	if n := <-m.Notices(); n.Transcript != "ready" {
		t.Errorf("notice = %+v", n)
	}
	if _, err := m.DetectIntent(ctx, "s1"); !errors.Is(err, boom) {
		t.Errorf("turn 2 err = %v", err)
	}
	if _, err := m.DetectIntent(ctx, "s1"); !errors.Is(err, ErrNoMoreTurns) {
		t.Errorf("turn 3 err = %v", err)
	}
	if m.Requests() != 3 {
		t.Errorf("requests = %d", m.Requests())
	}
}

func TestMock_CancelledContext(t *testing.T) {
	m := NewMock(Turn{Event: Event{Intent: "ready"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.DetectIntent(ctx, "s"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsClosed(t *testing.T) {
	if !IsClosed(errors.Join(errors.New("read failed"), ErrBackendClosed)) {
		t.Error("expected wrapped ErrBackendClosed to be detected")
	}
	if IsClosed(errors.New("other")) {
		t.Error("unexpected match")
	}
}
