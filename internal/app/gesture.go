package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/skipspot/internal/capture"
	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/features"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
)

// GestureSource tags outcomes dispatched by the gesture loop.
const GestureSource = "gesture"

// MaxReadFailures is how many consecutive camera read failures end a session.
const MaxReadFailures = 5

// HandSource yields at most one hand per call; nil means no observation.
type HandSource interface {
	Next(ctx context.Context) (*detector.HandLandmarks, error)
	Interval() time.Duration
}

// Dispatcher applies a confirmed action.
type Dispatcher interface {
	DispatchFrom(ctx context.Context, source string, action gesture.Label) dispatch.Outcome
}

// GestureSession runs hand source, extractor, classifier, smoother and
// dispatcher in one loop. The smoother state lives as long as the session.
type GestureSession struct {
	source     HandSource
	extractor  features.Extractor
	classifier gesture.Classifier
	smoother   *gesture.Smoother
	dispatcher Dispatcher
	hub        *Hub
	now        func() time.Time
	logger     *slog.Logger
}

// SessionOption configures a GestureSession.
type SessionOption func(*GestureSession)

// WithSessionClock replaces time.Now for elapsed-time bookkeeping.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *GestureSession) { s.now = now }
}

// WithHub publishes labels, confirmed gestures and outcomes to hub.
func WithHub(hub *Hub) SessionOption {
	return func(s *GestureSession) { s.hub = hub }
}

// NewGestureSession wires a gesture loop.
func NewGestureSession(src HandSource, ext features.Extractor, cls gesture.Classifier, sm *gesture.Smoother, d Dispatcher, opts ...SessionOption) *GestureSession {
	s := &GestureSession{
		source:     src,
		extractor:  ext,
		classifier: cls,
		smoother:   sm,
		dispatcher: d,
		now:        time.Now,
		logger:     log.Component("gesture"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes frames until the context ends (ctx.Err()), the preview window
// asks to stop or the camera runs out of frames (nil). Detector failures are
// logged and skipped; MaxReadFailures camera read failures in a row end the
// session with an error.
func (s *GestureSession) Run(ctx context.Context) error {
	s.logger.Info("gesture session started", "buffer", s.smoother.Config().Size, "cooldown", s.smoother.Config().Cooldown)
	last := s.now()
	readFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hand, err := s.source.Next(ctx)
		now := s.now()
		elapsed := now.Sub(last)
		last = now

		if !errors.Is(err, capture.ErrReadFailed) {
			readFailures = 0
		}

		switch {
		case err == nil:
			s.step(ctx, hand, elapsed)
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, capture.ErrStopRequested), errors.Is(err, capture.ErrNoFrames):
			s.logger.Info("gesture session ended", "reason", err)
			return nil
		case errors.Is(err, capture.ErrCameraNotOpen):
			return err
		case errors.Is(err, capture.ErrReadFailed):
			readFailures++
			if readFailures >= MaxReadFailures {
				return fmt.Errorf("camera stopped delivering frames: %w", err)
			}
			s.logger.Warn("camera read failed", "error", err, "attempt", readFailures)
			s.publish(Event{Type: EventError, Error: err.Error()})
		default:
			s.logger.Warn("frame skipped", "error", err)
			s.publish(Event{Type: EventError, Error: err.Error()})
		}

		if err := s.wait(ctx); err != nil {
			return err
		}
	}
}

// step classifies one observation and feeds the smoother. Frames without a
// hand still advance the cooldown.
func (s *GestureSession) step(ctx context.Context, hand *detector.HandLandmarks, elapsed time.Duration) {
	label := gesture.None
	if state, ok := s.extractor.Extract(hand); ok {
		label = s.classifier.Classify(state)
		s.logger.Debug("frame classified", "fingers", state.String(), "label", label)
		s.publish(Event{Type: EventLabel, Label: label})
	}

	confirmed, ok := s.smoother.Step(label, elapsed)
	if !ok {
		return
	}

	s.logger.Info("gesture confirmed", "gesture", confirmed)
	s.publish(Event{Type: EventGesture, Label: confirmed})

	out := s.dispatcher.DispatchFrom(ctx, GestureSource, confirmed)
	s.publish(Event{Type: EventOutcome, Label: confirmed, Outcome: &out})
}

func (s *GestureSession) wait(ctx context.Context) error {
	d := s.source.Interval()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *GestureSession) publish(ev Event) {
	if s.hub != nil {
		ev.Mode = ModeGesture
		s.hub.Publish(ev)
	}
}

// Smoother exposes the session's smoother.
func (s *GestureSession) Smoother() *gesture.Smoother {
	return s.smoother
}
