package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/skipspot/internal/capture"
	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "skipspot.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCaptureReference(t *testing.T) {
	s := newStore(t)
	frames := []frame{{}, {err: errors.New("detect hands: busy")}}
	frames = append(frames, repeat(detector.ThumbsUpLandmarks(), 6)...)
	src := &scriptedSource{frames: frames}

	ref, err := CaptureReference(context.Background(), src, s.References(), "thumb", gesture.Play, 5)
	if err != nil {
		t.Fatalf("CaptureReference() error = %v", err)
	}
	if ref.Samples != 5 || ref.Label != "play" || ref.Name != "thumb" {
		t.Errorf("reference = %+v", ref)
	}
	if src.reads != 7 {
		t.Errorf("reads = %d, want 7", src.reads)
	}

	data, err := s.References().SampleData(ref.ID)
	if err != nil {
		t.Fatal(err)
	}
	hands, err := gesture.DecodeSamples(data)
	if err != nil {
		t.Fatalf("DecodeSamples() error = %v", err)
	}
	if hands[0].Points != detector.ThumbsUpLandmarks().Points {
		t.Error("stored sample does not round-trip the landmarks")
	}
}

func TestCaptureReference_EndsEarly(t *testing.T) {
	s := newStore(t)
	src := &scriptedSource{frames: append(repeat(detector.FistLandmarks(), 2), frame{err: capture.ErrStopRequested})}

	ref, err := CaptureReference(context.Background(), src, s.References(), "fist", gesture.Pause, 10)
	if !errors.Is(err, ErrCaptureIncomplete) {
		t.Fatalf("CaptureReference() error = %v, want ErrCaptureIncomplete", err)
	}
	if ref == nil || ref.Samples != 2 {
		t.Errorf("reference = %+v, want 2 samples kept", ref)
	}
}

func TestCaptureReference_Validation(t *testing.T) {
	s := newStore(t)
	src := &scriptedSource{}

	if _, err := CaptureReference(context.Background(), src, s.References(), "x", gesture.Play, 0); err == nil {
		t.Error("expected error for zero samples")
	}
	if _, err := CaptureReference(context.Background(), src, s.References(), "x", gesture.Label("wave"), 3); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestInspectReferences(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := CaptureReference(ctx, &scriptedSource{frames: repeat(detector.ThumbsUpLandmarks(), 4)}, s.References(), "thumb", gesture.Play, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := CaptureReference(ctx, &scriptedSource{frames: repeat(detector.PinkyUpLandmarks(), 4)}, s.References(), "pinky-as-play", gesture.Play, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.References().Create(&store.Reference{ID: "empty", Name: "empty", Label: "pause"}); err != nil {
		t.Fatal(err)
	}

	p := defaultPipeline(t)
	reports, err := InspectReferences(s.References(), gesture.NewTrainer(p.Extractor, p.Classifier))
	if err != nil {
		t.Fatalf("InspectReferences() error = %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2 (empty capture left out)", len(reports))
	}

	byAgreement := map[float64]*gesture.Report{}
	for _, r := range reports {
		byAgreement[r.Agreement] = r
		if r.MeanDistance > 1e-9 {
			t.Errorf("%s: mean distance = %f, want 0 for identical samples", r.ID, r.MeanDistance)
		}
		if r.Nearest != gesture.Play {
			t.Errorf("%s: nearest = %s, want play", r.ID, r.Nearest)
		}
	}
	if byAgreement[1] == nil || byAgreement[0] == nil {
		t.Errorf("agreements = %v, want one capture at 1 and one at 0", byAgreement)
	}
}
