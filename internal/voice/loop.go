package voice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/speech"
)

// Source tags outcomes dispatched by the voice loop.
const Source = "voice"

// Dispatcher applies a matched action.
type Dispatcher interface {
	DispatchFrom(ctx context.Context, source string, action gesture.Label) dispatch.Outcome
}

// Event describes one iteration of the loop.
type Event struct {
	Transcript string
	Result     Result
	Outcome    *dispatch.Outcome
	Err        error
}

// LoopConfig tunes the voice loop.
type LoopConfig struct {
	ListenTimeout time.Duration
	Locale        string
}

// DefaultLoopConfig listens for 5 seconds and transcribes Brazilian Portuguese.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{ListenTimeout: 5 * time.Second, Locale: "pt-BR"}
}

// Loop runs listen, transcribe, match and dispatch until an exit phrase.
type Loop struct {
	listener    speech.Listener
	transcriber speech.Transcriber
	matcher     *Matcher
	dispatcher  Dispatcher
	config      LoopConfig
	observer    func(Event)
	logger      *slog.Logger
}

// NewLoop wires a loop together. Zero config fields take their defaults.
func NewLoop(listener speech.Listener, transcriber speech.Transcriber, matcher *Matcher, dispatcher Dispatcher, cfg LoopConfig) *Loop {
	def := DefaultLoopConfig()
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = def.ListenTimeout
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	return &Loop{
		listener:    listener,
		transcriber: transcriber,
		matcher:     matcher,
		dispatcher:  dispatcher,
		config:      cfg,
		logger:      log.Component("voice"),
	}
}

// Observe registers a function called after every iteration.
func (l *Loop) Observe(fn func(Event)) {
	l.observer = fn
}

// Run loops until an exit phrase (nil), cancellation (ctx.Err()) or a
// recorder failure. Speech timeouts, unintelligible audio and service
// errors are logged and the loop keeps listening.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("voice session started", "locale", l.config.Locale)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		exit, err := l.Step(ctx)
		if err != nil {
			return err
		}
		if exit {
			l.logger.Info("voice session ended")
			return nil
		}
	}
}

// Step runs one iteration and reports whether an exit phrase was heard.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	clip, err := l.listener.Listen(ctx, l.config.ListenTimeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if !speech.IsRecoverable(err) {
			return false, err
		}
		l.recoverable("listen", err)
		return false, nil
	}

	text, err := l.transcriber.Transcribe(ctx, clip, l.config.Locale)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		l.recoverable("transcribe", err)
		return false, nil
	}

	result := l.matcher.Match(text)
	ev := Event{Transcript: Normalize(text), Result: result}

	switch result.Kind {
	case Exit:
		l.logger.Info("exit phrase heard", "transcript", ev.Transcript)
		l.emit(ev)
		return true, nil
	case Unrecognized:
		l.logger.Info("unrecognized command", "transcript", ev.Transcript)
		l.emit(ev)
		return false, nil
	}

	l.logger.Debug("command matched", "transcript", ev.Transcript, "action", result.Action, "trigger", result.Trigger)
	out := l.dispatcher.DispatchFrom(ctx, Source, result.Action)
	ev.Outcome = &out
	l.emit(ev)
	return false, nil
}

func (l *Loop) recoverable(stage string, err error) {
	switch {
	case errors.Is(err, speech.ErrTimeout):
		l.logger.Warn("no speech before timeout", "stage", stage)
	case errors.Is(err, speech.ErrUnintelligible):
		l.logger.Warn("could not understand audio", "stage", stage)
	default:
		l.logger.Warn("speech service error", "stage", stage, "error", err)
	}
	l.emit(Event{Result: Result{Kind: Unrecognized, Action: gesture.None}, Err: err})
}

func (l *Loop) emit(ev Event) {
	if l.observer != nil {
		l.observer(ev)
	}
}
