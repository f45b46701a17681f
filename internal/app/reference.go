package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/skipspot/internal/capture"
	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/store"
)

// ErrCaptureIncomplete is returned when the source ended before enough hands
// were seen. The samples captured so far are kept.
var ErrCaptureIncomplete = errors.New("app: reference capture ended early")

// CaptureReference records n hand frames of one labelled pose. Frames
// without a hand are skipped and do not count.
func CaptureReference(ctx context.Context, src HandSource, refs *store.ReferenceRepository, name string, label gesture.Label, n int) (*store.Reference, error) {
	if n < 1 {
		return nil, fmt.Errorf("app: sample count must be positive, got %d", n)
	}
	if _, err := gesture.ParseLabel(string(label)); err != nil {
		return nil, err
	}

	ref := &store.Reference{ID: uuid.New().String(), Name: name, Label: string(label)}
	if err := refs.Create(ref); err != nil {
		return nil, fmt.Errorf("create reference %q: %w", name, err)
	}

	logger := log.Component("reference")
	samples := make([]json.RawMessage, 0, n)
	var captureErr error
	for len(samples) < n {
		hand, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, capture.ErrStopRequested) || errors.Is(err, capture.ErrNoFrames) || ctx.Err() != nil {
				captureErr = fmt.Errorf("%w after %d of %d samples: %v", ErrCaptureIncomplete, len(samples), n, err)
				break
			}
			logger.Warn("frame skipped", "error", err)
			continue
		}
		if hand == nil {
			continue
		}
		data, err := json.Marshal(gesture.NewSample(*hand, time.Now().UnixMilli()))
		if err != nil {
			return nil, err
		}
		samples = append(samples, data)
		logger.Debug("sample captured", "reference", name, "count", len(samples))
	}

	if len(samples) > 0 {
		if err := refs.AddSamples(ref.ID, samples); err != nil {
			return nil, fmt.Errorf("save samples: %w", err)
		}
	}
	stored, err := refs.GetByID(ref.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("reference captured", "reference", name, "label", label, "samples", stored.Samples)
	return stored, captureErr
}

// InspectReferences replays every stored capture through trainer. Captures
// without samples are left out.
func InspectReferences(refs *store.ReferenceRepository, trainer *gesture.Trainer) ([]*gesture.Report, error) {
	list, err := refs.List()
	if err != nil {
		return nil, err
	}

	type loaded struct {
		ref   *store.Reference
		label gesture.Label
		hands []detector.HandLandmarks
	}
	var all []loaded
	var templates []*gesture.Template
	for _, ref := range list {
		label, err := gesture.ParseLabel(ref.Label)
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref.Name, err)
		}
		data, err := refs.SampleData(ref.ID)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		hands, err := gesture.DecodeSamples(data)
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref.Name, err)
		}
		tmpl, err := trainer.Average(ref.ID, label, hands)
		if err != nil {
			return nil, err
		}
		all = append(all, loaded{ref: ref, label: label, hands: hands})
		templates = append(templates, tmpl)
	}

	reports := make([]*gesture.Report, 0, len(all))
	for _, l := range all {
		report, err := trainer.Inspect(l.ref.ID, l.label, l.hands, templates)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
