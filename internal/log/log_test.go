package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "component", "test")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if rec["msg"] != "hello" || rec["component"] != "test" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("quiet")
	l.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=loud") {
		t.Errorf("missing warn record: %q", out)
	}
}

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	New(&buf, "info", "").Info("prod")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON in production, got %q", buf.String())
	}
}

func TestPackageHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := logger
	logger = New(&buf, "debug", "json")
	defer func() { logger = prev }()

	Debug("config loaded", "file", "nao.yaml")
	Info("robot ready", "battery", 87)
	Warn("robot status unavailable")
	Error("dashboard stopped")
	With("command", "run").Info("starting session")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}

	want := []struct{ level, msg string }{
		{"DEBUG", "config loaded"},
		{"INFO", "robot ready"},
		{"WARN", "robot status unavailable"},
		{"ERROR", "dashboard stopped"},
		{"INFO", "starting session"},
	}
	for i, w := range want {
		var rec map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &rec); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if rec["level"] != w.level || rec["msg"] != w.msg {
			t.Errorf("line %d = %v, want %s %q", i, rec, w.level, w.msg)
		}
	}

	var last map[string]any
	json.Unmarshal([]byte(lines[4]), &last)
	if last["command"] != "run" {
		t.Errorf("With attributes missing: %v", last)
	}
}
