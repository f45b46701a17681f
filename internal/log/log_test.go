package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug")

	Component("dispatch").Info("applied", "action", "play")

	out := buf.String()
	if !strings.Contains(out, "component=dispatch") {
		t.Errorf("expected component attribute in %q", out)
	}
	if !strings.Contains(out, "action=play") {
		t.Errorf("expected action attribute in %q", out)
	}
}

func TestOr(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))

	Or(custom, "voice").Info("hello")
	if !strings.Contains(buf.String(), "component=voice") {
		t.Errorf("expected custom logger to be used, got %q", buf.String())
	}

	if Or(nil, "voice") == nil {
		t.Error("Or(nil) should fall back to the global logger")
	}
}
