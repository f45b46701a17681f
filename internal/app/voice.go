package app

import (
	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/speech"
	"github.com/ayusman/skipspot/internal/voice"
)

// NewVoiceLoop builds the voice loop from configuration and forwards its
// transcripts and outcomes to hub when hub is not nil.
func NewVoiceLoop(cfg *config.Config, l speech.Listener, t speech.Transcriber, d Dispatcher, hub *Hub) (*voice.Loop, error) {
	matcher, err := voice.MatcherFromConfig(cfg.Voice)
	if err != nil {
		return nil, err
	}
	loop := voice.NewLoop(l, t, matcher, d, voice.LoopConfig{
		ListenTimeout: cfg.Voice.ListenTimeout.D(),
		Locale:        cfg.Voice.Locale,
	})
	if hub != nil {
		loop.Observe(func(ev voice.Event) { publishVoice(hub, ev) })
	}
	return loop, nil
}

func publishVoice(hub *Hub, ev voice.Event) {
	if ev.Err != nil {
		hub.Publish(Event{Type: EventError, Mode: ModeVoice, Error: ev.Err.Error()})
		return
	}
	hub.Publish(Event{Type: EventTranscript, Mode: ModeVoice, Transcript: ev.Transcript, Label: ev.Result.Action})
	if ev.Outcome != nil {
		hub.Publish(Event{Type: EventOutcome, Mode: ModeVoice, Label: ev.Result.Action, Outcome: ev.Outcome})
	}
}
