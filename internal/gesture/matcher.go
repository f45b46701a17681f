package gesture

import (
	"math"
	"sort"

	"github.com/ayusman/skipspot/internal/detector"
)

// Template is the averaged, normalized pose of one reference capture.
type Template struct {
	ID        string             // reference set id
	Label     Label              // label the capture was recorded for
	Landmarks []detector.Point3D // normalized landmarks
	Tolerance float64            // maximum distance for a match
}

// Match represents a matching result between input and a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Match score (0-1, higher is better)
	Distance float64   // Euclidean distance between input and template
}

// TemplateMatcher compares hands against reference templates. It only
// reports similarity; labels still come from the rule classifier.
type TemplateMatcher struct {
	templates []*Template
}

// NewTemplateMatcher creates an empty TemplateMatcher.
func NewTemplateMatcher() *TemplateMatcher {
	return &TemplateMatcher{
		templates: make([]*Template, 0),
	}
}

// AddTemplate adds a template to the matcher.
func (m *TemplateMatcher) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *TemplateMatcher) RemoveTemplate(id string) {
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// Len returns the number of templates.
func (m *TemplateMatcher) Len() int {
	return len(m.templates)
}

// Match finds templates within tolerance of hand, best first.
// A zero tolerance accepts any distance.
func (m *TemplateMatcher) Match(hand *detector.HandLandmarks) []Match {
	if hand == nil {
		return nil
	}

	normalized := hand.Normalize()
	input := normalized.Points[:]

	var matches []Match
	for _, template := range m.templates {
		distance := euclideanDistance(input, template.Landmarks)
		if template.Tolerance > 0 && distance > template.Tolerance {
			continue
		}
		matches = append(matches, Match{
			Template: template,
			Score:    1.0 / (1.0 + distance),
			Distance: distance,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Nearest returns the closest template regardless of tolerance, or nil.
func (m *TemplateMatcher) Nearest(hand *detector.HandLandmarks) *Match {
	if hand == nil || len(m.templates) == 0 {
		return nil
	}
	input := hand.Normalize().Points[:]

	var best *Match
	for _, template := range m.templates {
		distance := euclideanDistance(input, template.Landmarks)
		if best == nil || distance < best.Distance {
			best = &Match{Template: template, Score: 1.0 / (1.0 + distance), Distance: distance}
		}
	}
	return best
}

// euclideanDistance sums the distances between corresponding points.
func euclideanDistance(a, b []detector.Point3D) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var totalDist float64
	for i := 0; i < minLen; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		totalDist += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	return totalDist
}
