package features

import (
	"math"
	"testing"

	"github.com/ayusman/skipspot/internal/detector"
)

func up(fingers ...detector.Finger) [detector.NumFingers]bool {
	var out [detector.NumFingers]bool
	for _, f := range fingers {
		out[f] = true
	}
	return out
}

func TestOffsetExtractor(t *testing.T) {
	e := &OffsetExtractor{Thresholds: DefaultThresholds()}

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want FingerState
	}{
		{"thumbs up", detector.ThumbsUpLandmarks(), FingerState{Up: up(detector.Thumb)}},
		{"index up", detector.IndexUpLandmarks(), FingerState{Up: up(detector.Index), Pointing: DirUp}},
		{"ring up", detector.RingUpLandmarks(), FingerState{Up: up(detector.Ring)}},
		{"pinky up", detector.PinkyUpLandmarks(), FingerState{Up: up(detector.Pinky)}},
		{"peace", detector.PeaceLandmarks(), FingerState{Up: up(detector.Thumb, detector.Index), Pointing: DirUp}},
		{"fist", detector.FistLandmarks(), FingerState{Closed: true}},
		{"point right", detector.PointRightLandmarks(), FingerState{Pointing: DirRight}},
		{"point left", detector.PointLeftLandmarks(), FingerState{Pointing: DirLeft}},
		{"point down", detector.PointDownLandmarks(), FingerState{Pointing: DirDown}},
		{"open palm", detector.OpenPalmLandmarks(), FingerState{
			Up:       up(detector.Thumb, detector.Index, detector.Middle, detector.Ring, detector.Pinky),
			Pointing: DirUp,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(&tt.hand)
			if !ok {
				t.Fatal("expected an observation")
			}
			if got != tt.want {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleExtractor(t *testing.T) {
	e := &AngleExtractor{Thresholds: DefaultThresholds()}

	// The angle method reads a straight index as raised regardless of where
	// it points, unlike the wrist offset method.
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want FingerState
	}{
		{"thumbs up", detector.ThumbsUpLandmarks(), FingerState{Up: up(detector.Thumb)}},
		{"index up", detector.IndexUpLandmarks(), FingerState{Up: up(detector.Index), Pointing: DirUp}},
		{"fist", detector.FistLandmarks(), FingerState{Closed: true}},
		{"point right", detector.PointRightLandmarks(), FingerState{Up: up(detector.Index), Pointing: DirRight}},
		{"point down", detector.PointDownLandmarks(), FingerState{Up: up(detector.Index), Pointing: DirDown}},
		{"open palm", detector.OpenPalmLandmarks(), FingerState{
			Up:       up(detector.Thumb, detector.Index, detector.Middle, detector.Ring, detector.Pinky),
			Pointing: DirUp,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(&tt.hand)
			if !ok {
				t.Fatal("expected an observation")
			}
			if got != tt.want {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_NoHand(t *testing.T) {
	for _, method := range []string{MethodOffset, MethodAngle} {
		e, err := New(method, DefaultThresholds())
		if err != nil {
			t.Fatalf("New(%q): %v", method, err)
		}
		if _, ok := e.Extract(nil); ok {
			t.Errorf("%s: expected no observation for a missing hand", method)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("empty method defaults to offset", func(t *testing.T) {
		e, err := New("", DefaultThresholds())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := e.(*OffsetExtractor); !ok {
			t.Errorf("expected *OffsetExtractor, got %T", e)
		}
	})

	t.Run("angle", func(t *testing.T) {
		e, err := New(MethodAngle, DefaultThresholds())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := e.(*AngleExtractor); !ok {
			t.Errorf("expected *AngleExtractor, got %T", e)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		if _, err := New("telepathy", DefaultThresholds()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestInteriorAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c detector.Point3D
		want    float64
	}{
		{"straight", detector.Point3D{X: 0, Y: 0}, detector.Point3D{X: 1, Y: 0}, detector.Point3D{X: 2, Y: 0}, 180},
		{"right angle", detector.Point3D{X: 0, Y: 1}, detector.Point3D{X: 0, Y: 0}, detector.Point3D{X: 1, Y: 0}, 90},
		{"folded back", detector.Point3D{X: 1, Y: 0}, detector.Point3D{X: 0, Y: 0}, detector.Point3D{X: 1, Y: 0}, 0},
		{"degenerate", detector.Point3D{}, detector.Point3D{}, detector.Point3D{X: 1}, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InteriorAngle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("InteriorAngle() = %f, want %f", got, tt.want)
			}
			if bend := Bend(tt.a, tt.b, tt.c); math.Abs(bend-(180-tt.want)) > 1e-6 {
				t.Errorf("Bend() = %f, want %f", bend, 180-tt.want)
			}
		})
	}
}

func TestThresholdBoundaries(t *testing.T) {
	hand := detector.FistLandmarks()
	// lift the index tip to exactly the vertical threshold
	wrist := hand.Points[detector.Wrist]
	hand.Points[detector.IndexTip].Y = wrist.Y - 0.25

	e := &OffsetExtractor{Thresholds: DefaultThresholds()}
	s, _ := e.Extract(&hand)
	if !s.IsUp(detector.Index) {
		t.Error("a tip exactly at the threshold counts as up")
	}

	strict := DefaultThresholds()
	strict.Vertical = 0.3
	e = &OffsetExtractor{Thresholds: strict}
	s, _ = e.Extract(&hand)
	if s.IsUp(detector.Index) {
		t.Error("a tip below a stricter threshold is down")
	}
}

func TestFingerState_String(t *testing.T) {
	s := FingerState{Up: up(detector.Thumb, detector.Ring), Pointing: DirLeft}
	if got, want := s.String(), "TimRp ->left"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (FingerState{Closed: true}).String(); got != "timrp closed" {
		t.Errorf("String() = %q", got)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
}
