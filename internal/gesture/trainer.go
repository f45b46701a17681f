package gesture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/features"
)

// ErrNoSamples is returned when a reference has nothing to work with.
var ErrNoSamples = errors.New("gesture: no samples provided")

// Sample is one captured frame of a reference pose as stored on disk.
type Sample struct {
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

// NewSample encodes a hand for storage.
func NewSample(hand detector.HandLandmarks, timestamp int64) Sample {
	return Sample{Landmarks: append([]detector.Point3D(nil), hand.Points[:]...), Timestamp: timestamp}
}

// Hand rebuilds the landmarks of a stored sample.
func (s Sample) Hand() (detector.HandLandmarks, error) {
	var h detector.HandLandmarks
	if len(s.Landmarks) != detector.NumLandmarks {
		return h, fmt.Errorf("sample has %d landmarks, expected %d", len(s.Landmarks), detector.NumLandmarks)
	}
	copy(h.Points[:], s.Landmarks)
	return h, nil
}

// DecodeSamples parses raw stored samples into hands.
func DecodeSamples(samples []json.RawMessage) ([]detector.HandLandmarks, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	hands := make([]detector.HandLandmarks, 0, len(samples))
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		hand, err := sample.Hand()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		hands = append(hands, hand)
	}
	return hands, nil
}

// Trainer turns reference captures into templates and reports.
type Trainer struct {
	extractor  features.Extractor
	classifier Classifier
}

// NewTrainer creates a Trainer that replays samples through the given
// extractor and classifier.
func NewTrainer(extractor features.Extractor, classifier Classifier) *Trainer {
	return &Trainer{extractor: extractor, classifier: classifier}
}

// Average normalizes every hand and averages them point by point.
func (t *Trainer) Average(id string, label Label, hands []detector.HandLandmarks) (*Template, error) {
	if len(hands) == 0 {
		return nil, ErrNoSamples
	}

	averaged := make([]detector.Point3D, detector.NumLandmarks)
	n := float64(len(hands))

	for _, hand := range hands {
		normalized := hand.Normalize()
		for i, p := range normalized.Points {
			averaged[i].X += p.X / n
			averaged[i].Y += p.Y / n
			averaged[i].Z += p.Z / n
		}
	}

	return &Template{ID: id, Label: label, Landmarks: averaged}, nil
}

// Report summarizes how one reference capture behaves under the current
// extractor and classifier.
type Report struct {
	ID      string
	Label   Label
	Samples int
	// Observed counts samples the extractor produced a state for.
	Observed int
	// Classified counts the label each sample received.
	Classified map[Label]int
	// Agreement is the share of samples classified as Label.
	Agreement float64
	// MeanDistance is the average distance of samples to their own template.
	MeanDistance float64
	// Nearest is the label of the closest other template, if any were given.
	Nearest Label
	// NearestDistance is the distance between the two templates.
	NearestDistance float64
}

// Inspect replays hands through the extractor and classifier and measures
// their spread around the averaged template. others are templates of other
// captures used to find the most confusable one.
func (t *Trainer) Inspect(id string, label Label, hands []detector.HandLandmarks, others []*Template) (*Report, error) {
	template, err := t.Average(id, label, hands)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         id,
		Label:      label,
		Samples:    len(hands),
		Classified: make(map[Label]int),
		Nearest:    None,
	}

	var total float64
	for i := range hands {
		hand := &hands[i]
		if state, ok := t.extractor.Extract(hand); ok {
			report.Observed++
			report.Classified[t.classifier.Classify(state)]++
		}
		total += euclideanDistance(hand.Normalize().Points[:], template.Landmarks)
	}
	report.MeanDistance = total / float64(len(hands))
	report.Agreement = float64(report.Classified[label]) / float64(len(hands))

	matcher := NewTemplateMatcher()
	for _, other := range others {
		if other != nil && other.ID != id {
			matcher.AddTemplate(other)
		}
	}
	if matcher.Len() > 0 {
		probe := detector.HandLandmarks{}
		copy(probe.Points[:], template.Landmarks)
		if nearest := matcher.Nearest(&probe); nearest != nil {
			report.Nearest = nearest.Template.Label
			report.NearestDistance = nearest.Distance
		}
	}

	return report, nil
}
