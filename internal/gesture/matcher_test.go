package gesture

import (
	"testing"

	"github.com/ayusman/skipspot/internal/detector"
)

func templateOf(id string, label Label, hand detector.HandLandmarks, tolerance float64) *Template {
	return &Template{
		ID:        id,
		Label:     label,
		Landmarks: hand.Normalize().Points[:],
		Tolerance: tolerance,
	}
}

func TestTemplateMatcher_Match(t *testing.T) {
	matcher := NewTemplateMatcher()
	matcher.AddTemplate(templateOf("thumb", Play, detector.ThumbsUpLandmarks(), 0.5))

	input := detector.ThumbsUpLandmarks()
	matches := matcher.Match(&input)

	if len(matches) == 0 {
		t.Fatal("expected at least one match for thumbs up input")
	}
	if matches[0].Template.ID != "thumb" {
		t.Errorf("expected match for 'thumb' template, got %q", matches[0].Template.ID)
	}
	if matches[0].Score < 0.9 {
		t.Errorf("expected high score (>0.9) for identical pose, got %f", matches[0].Score)
	}
	if matches[0].Distance > 0.1 {
		t.Errorf("expected low distance (<0.1) for identical pose, got %f", matches[0].Distance)
	}
}

func TestTemplateMatcher_OutsideTolerance(t *testing.T) {
	matcher := NewTemplateMatcher()
	matcher.AddTemplate(templateOf("thumb", Play, detector.ThumbsUpLandmarks(), 0.3))

	input := detector.OpenPalmLandmarks()
	for _, match := range matcher.Match(&input) {
		if match.Score > 0.5 {
			t.Errorf("expected low score (<0.5) for a different pose, got %f", match.Score)
		}
	}
}

func TestTemplateMatcher_AddRemoveTemplate(t *testing.T) {
	matcher := NewTemplateMatcher()

	matcher.AddTemplate(&Template{ID: "template-1", Landmarks: make([]detector.Point3D, detector.NumLandmarks)})
	matcher.AddTemplate(&Template{ID: "template-2", Landmarks: make([]detector.Point3D, detector.NumLandmarks)})
	matcher.AddTemplate(nil)

	if matcher.Len() != 2 {
		t.Errorf("expected 2 templates, got %d", matcher.Len())
	}

	matcher.RemoveTemplate("template-1")
	if matcher.Len() != 1 {
		t.Errorf("expected 1 template after removal, got %d", matcher.Len())
	}
	if matcher.templates[0].ID != "template-2" {
		t.Errorf("expected remaining template to be 'template-2', got %q", matcher.templates[0].ID)
	}

	// Remove non-existent template (should not panic)
	matcher.RemoveTemplate("non-existent")
	if matcher.Len() != 1 {
		t.Errorf("expected 1 template after removing non-existent, got %d", matcher.Len())
	}
}

func TestTemplateMatcher_SortedByScore(t *testing.T) {
	matcher := NewTemplateMatcher()
	matcher.AddTemplate(templateOf("palm", None, detector.OpenPalmLandmarks(), 0))
	matcher.AddTemplate(templateOf("thumb", Play, detector.ThumbsUpLandmarks(), 0))
	matcher.AddTemplate(templateOf("fist", Pause, detector.FistLandmarks(), 0))

	input := detector.ThumbsUpLandmarks()
	matches := matcher.Match(&input)

	if len(matches) != 3 {
		t.Fatalf("zero tolerance accepts every template, got %d matches", len(matches))
	}
	if matches[0].Template.ID != "thumb" {
		t.Errorf("best match = %q, want thumb", matches[0].Template.ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Error("matches should be sorted by score descending")
		}
	}
}

func TestTemplateMatcher_Nearest(t *testing.T) {
	matcher := NewTemplateMatcher()
	if matcher.Nearest(nil) != nil {
		t.Error("expected nil for nil input")
	}

	input := detector.PeaceLandmarks()
	if matcher.Nearest(&input) != nil {
		t.Error("expected nil without templates")
	}

	matcher.AddTemplate(templateOf("fist", Pause, detector.FistLandmarks(), 0.01))
	matcher.AddTemplate(templateOf("index", VolumeUp, detector.IndexUpLandmarks(), 0.01))

	nearest := matcher.Nearest(&input)
	if nearest == nil {
		t.Fatal("Nearest ignores tolerance and should always answer")
	}
	if nearest.Template.ID != "index" {
		t.Errorf("peace is closest to index up, got %q", nearest.Template.ID)
	}
}

func TestTemplateMatcher_NilInput(t *testing.T) {
	matcher := NewTemplateMatcher()
	matcher.AddTemplate(&Template{ID: "test", Landmarks: make([]detector.Point3D, detector.NumLandmarks), Tolerance: 0.5})

	if matches := matcher.Match(nil); len(matches) != 0 {
		t.Errorf("expected 0 matches for nil input, got %d", len(matches))
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}
	b := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}
	if dist := euclideanDistance(a, b); dist != 0 {
		t.Errorf("expected distance 0 for identical points, got %f", dist)
	}

	c := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	d := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	if dist := euclideanDistance(c, d); dist != 1.0 {
		t.Errorf("expected distance 1.0, got %f", dist)
	}

	if dist := euclideanDistance(nil, nil); dist != 0 {
		t.Errorf("expected distance 0 for empty slices, got %f", dist)
	}
}
