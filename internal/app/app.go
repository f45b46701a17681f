// Package app orchestrates the recognition sessions: the gesture loop, the
// voice loop and the switch that keeps exactly one of them running.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/features"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
)

// Mode is the active recognition session.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeGesture Mode = "gesture"
	ModeVoice   Mode = "voice"
)

// ErrUnknownMode is returned for mode names other than idle, gesture and voice.
var ErrUnknownMode = errors.New("app: unknown mode")

// ErrModeUnavailable is returned when no runner was registered for a mode.
var ErrModeUnavailable = errors.New("app: mode not available")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeIdle, ModeGesture, ModeVoice:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Runner runs one session until it ends or ctx is cancelled.
type Runner func(ctx context.Context) error

// App owns the mode switch. Sessions never overlap: a new one starts only
// after the previous one has returned.
type App struct {
	// switchMu serializes SwitchMode and Stop across the window where
	// stopLocked releases mu to wait for the old session.
	switchMu sync.Mutex

	mu      sync.Mutex
	mode    Mode
	runners map[Mode]Runner
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	hub     *Hub
	logger  *slog.Logger
}

// New creates an idle App publishing to hub. A nil hub gets a fresh one.
func New(hub *Hub) *App {
	if hub == nil {
		hub = NewHub()
	}
	return &App{
		mode:    ModeIdle,
		runners: make(map[Mode]Runner),
		hub:     hub,
		logger:  log.Component("app"),
	}
}

// Register sets the runner started when switching to mode.
func (a *App) Register(mode Mode, r Runner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runners[mode] = r
}

// Available lists the modes that can be switched to, idle included.
func (a *App) Available() []Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	modes := []Mode{ModeIdle}
	for _, m := range []Mode{ModeGesture, ModeVoice} {
		if a.runners[m] != nil {
			modes = append(modes, m)
		}
	}
	return modes
}

// Hub returns the event hub.
func (a *App) Hub() *Hub {
	return a.hub
}

// Mode returns the active mode.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// LastError returns the error the most recent session ended with, if any.
func (a *App) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// SwitchMode stops the running session and starts the one for mode.
// Switching to the active mode is a no-op. The session runs under parent;
// when it ends on its own the app goes back to idle.
func (a *App) SwitchMode(parent context.Context, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	a.switchMu.Lock()
	defer a.switchMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	if mode == a.mode {
		return nil
	}
	var runner Runner
	if mode != ModeIdle {
		runner = a.runners[mode]
		if runner == nil {
			return fmt.Errorf("%w: %s", ErrModeUnavailable, mode)
		}
	}

	a.stopLocked()
	a.setModeLocked(mode)
	if runner == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.lastErr = nil

	go func() {
		defer close(done)
		err := runner(ctx)
		a.finished(done, mode, err)
	}()
	return nil
}

// finished records how the session for mode ended and returns to idle,
// unless another switch already replaced it.
func (a *App) finished(done chan struct{}, mode Mode, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		a.logger.Error("session failed", "mode", mode, "error", err)
		a.hub.Publish(Event{Type: EventError, Mode: mode, Error: err.Error()})
	}
	if a.done != done {
		return
	}
	a.lastErr = err
	a.cancel = nil
	a.done = nil
	a.setModeLocked(ModeIdle)
}

// Done returns a channel closed when the current session ends, or nil when idle.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Stop ends the running session and waits for it.
func (a *App) Stop() {
	a.switchMu.Lock()
	defer a.switchMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.setModeLocked(ModeIdle)
}

func (a *App) stopLocked() {
	if a.cancel == nil {
		return
	}
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	cancel()

	// The session's finished call needs mu to notice it was replaced.
	// switchMu stays held so no other switch starts meanwhile.
	a.mu.Unlock()
	<-done
	a.mu.Lock()
}

func (a *App) setModeLocked(mode Mode) {
	if a.mode == mode {
		return
	}
	a.logger.Info("mode switched", "from", a.mode, "to", mode)
	a.mode = mode
	a.hub.Publish(Event{Type: EventMode, Mode: mode})
}

// Pipeline holds the per-frame stages built from configuration.
type Pipeline struct {
	Extractor  features.Extractor
	Classifier *gesture.RuleClassifier
	Smoother   gesture.SmootherConfig
}

// PipelineFromConfig builds the extractor, classifier and smoother settings.
func PipelineFromConfig(cfg *config.Config) (*Pipeline, error) {
	ext, err := features.New(cfg.Features.Method, features.Thresholds{
		Vertical:   cfg.Features.VerticalThreshold,
		Lateral:    cfg.Features.LateralThreshold,
		Angle:      cfg.Features.AngleThreshold,
		FistRadius: cfg.Features.FistRadius,
	})
	if err != nil {
		return nil, err
	}
	cls, err := gesture.NewClassifier(cfg.Gesture.Scheme)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Extractor:  ext,
		Classifier: cls,
		Smoother: gesture.SmootherConfig{
			Size:       cfg.Gesture.BufferSize,
			Confidence: cfg.Gesture.Confidence,
			Cooldown:   cfg.Gesture.Cooldown.D(),
		},
	}, nil
}

// NewSession returns a gesture session with a fresh smoother.
func (p *Pipeline) NewSession(src HandSource, d Dispatcher, opts ...SessionOption) *GestureSession {
	return NewGestureSession(src, p.Extractor, p.Classifier, gesture.NewSmoother(p.Smoother), d, opts...)
}
