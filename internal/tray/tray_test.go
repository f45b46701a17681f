package tray

import (
	"context"
	"testing"
	"time"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
)

func TestModeTitle(t *testing.T) {
	tests := []struct {
		mode, active app.Mode
		want         string
	}{
		{app.ModeGesture, app.ModeGesture, "● Gesture control"},
		{app.ModeVoice, app.ModeGesture, "○ Voice control"},
		{app.ModeIdle, app.ModeIdle, "● Idle"},
	}
	for _, tt := range tests {
		if got := modeTitle(tt.mode, tt.active); got != tt.want {
			t.Errorf("modeTitle(%s, %s) = %q, want %q", tt.mode, tt.active, got, tt.want)
		}
	}
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle(\"\") = %q", got)
	}
}

func TestTray_Follow(t *testing.T) {
	hub := app.NewHub()
	tr := New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Follow(ctx, hub)
		close(done)
	}()

	out := dispatch.Outcome{Action: gesture.VolumeUp, Status: dispatch.Applied, Volume: 70}
	deadline := time.Now().Add(2 * time.Second)
	for tr.Mode() != app.ModeVoice || tr.LastAction() == "" {
		if time.Now().After(deadline) {
			t.Fatalf("tray not updated: mode=%s last=%q", tr.Mode(), tr.LastAction())
		}
		hub.Publish(app.Event{Type: app.EventMode, Mode: app.ModeVoice})
		hub.Publish(app.Event{Type: app.EventOutcome, Outcome: &out})
		time.Sleep(10 * time.Millisecond)
	}

	if got := tr.LastAction(); got != "volume_up: applied (volume 70%)" {
		t.Errorf("LastAction() = %q", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()
	var got app.Mode
	tr.OnMode(func(m app.Mode) { got = m })
	tr.handleMode(app.ModeGesture)
	if got != app.ModeGesture {
		t.Errorf("OnMode callback got %q, want gesture", got)
	}
}
