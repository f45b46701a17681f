package app

import (
	"context"
	"testing"
	"time"

	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/playback"
	"github.com/ayusman/skipspot/internal/speech"
)

type cannedListener struct{}

func (cannedListener) Listen(ctx context.Context, timeout time.Duration) (*speech.Clip, error) {
	return &speech.Clip{PCM: make([]byte, 320), SampleRate: 16000}, nil
}

type cannedTranscriber struct {
	texts []string
}

func (c *cannedTranscriber) Transcribe(ctx context.Context, clip *speech.Clip, locale string) (string, error) {
	if len(c.texts) == 0 {
		return "", speech.ErrUnintelligible
	}
	text := c.texts[0]
	c.texts = c.texts[1:]
	return text, nil
}

func TestNewVoiceLoop_PublishesToHub(t *testing.T) {
	player := &fakePlayer{state: &playback.State{IsPlaying: true, VolumePercent: 30, DevicePresent: true}}
	hub := NewHub()
	events, unsubscribe := hub.Subscribe(32)

	transcriber := &cannedTranscriber{texts: []string{"Pausar a música", "que dia é hoje", "sair"}}
	loop, err := NewVoiceLoop(config.Default(), cannedListener{}, transcriber, dispatch.New(player, dispatch.DefaultConfig()), hub)
	if err != nil {
		t.Fatalf("NewVoiceLoop() error = %v", err)
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	unsubscribe()

	if got := player.Calls(); len(got) != 1 || got[0] != "pause" {
		t.Fatalf("calls = %v, want [pause]", got)
	}

	var transcripts []string
	var outcomes int
	for ev := range events {
		switch ev.Type {
		case EventTranscript:
			transcripts = append(transcripts, ev.Transcript)
		case EventOutcome:
			outcomes++
			if ev.Outcome.Source != "voice" || ev.Label != gesture.Pause {
				t.Errorf("outcome event = %+v", ev)
			}
		}
	}
	want := []string{"pausar a música", "que dia é hoje", "sair"}
	if len(transcripts) != len(want) {
		t.Fatalf("transcripts = %q, want %q", transcripts, want)
	}
	for i := range want {
		if transcripts[i] != want[i] {
			t.Errorf("transcript[%d] = %q, want %q", i, transcripts[i], want[i])
		}
	}
	if outcomes != 1 {
		t.Errorf("outcome events = %d, want 1", outcomes)
	}
	if last, ok := hub.Last(); !ok || last.Status != dispatch.Applied {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestNewVoiceLoop_InvalidCommands(t *testing.T) {
	cfg := config.Default()
	cfg.Voice.Commands = []config.VoiceCommand{{Action: "rewind", Triggers: []string{"rebobinar"}}}

	if _, err := NewVoiceLoop(cfg, cannedListener{}, &cannedTranscriber{}, nil, nil); err == nil {
		t.Fatal("expected error for unknown voice action")
	}
}
