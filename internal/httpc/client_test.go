package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := PostJSON(context.Background(), NewClient(time.Second), srv.URL, map[string]any{"text": "hi", "block": true})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got["text"] != "hi" || got["block"] != true {
		t.Errorf("body = %v", got)
	}
}

func TestPostJSON_UnmarshalableBody(t *testing.T) {
	if _, err := PostJSON(context.Background(), NewClient(time.Second), "http://127.0.0.1:1", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestGet_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Get(ctx, NewClient(time.Second), srv.URL)
	if !IsTimeout(err) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestConnTrace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, trace := WithConnTrace(context.Background())
	_, err := Get(ctx, NewClient(50*time.Millisecond), srv.URL)
	if !IsTimeout(err) {
		t.Fatalf("expected client timeout, got %v", err)
	}
	if !trace.Connected() {
		t.Error("server accepted the connection; trace should report it")
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	ctx, trace = WithConnTrace(context.Background())
	if _, err := Get(ctx, NewClient(time.Second), url); err == nil {
		t.Fatal("expected connection error")
	}
	if trace.Connected() {
		t.Error("refused connection reported as connected")
	}
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(errors.New("connection refused")) {
		t.Error("plain error is not a timeout")
	}
	if !IsTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Error("deadline should be a timeout")
	}
}
