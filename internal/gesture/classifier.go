package gesture

import (
	"fmt"

	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/features"
)

// Scheme names accepted by NewClassifier.
const (
	SchemeCounting = "counting"
	SchemePointing = "pointing"
)

// Classifier maps one finger state to a label. Unmatched states yield None.
type Classifier interface {
	Classify(s features.FingerState) Label
}

// Rule is one row of a classifier table.
type Rule struct {
	Name  string
	Label Label
	Match func(s features.FingerState) bool
}

// RuleClassifier evaluates an ordered rule table; the first matching rule wins.
// Rules within one table never overlap, so order only matters for speed.
type RuleClassifier struct {
	scheme string
	rules  []Rule
}

// NewClassifier returns the classifier for scheme.
func NewClassifier(scheme string) (*RuleClassifier, error) {
	switch scheme {
	case SchemeCounting, "":
		return &RuleClassifier{scheme: SchemeCounting, rules: countingRules}, nil
	case SchemePointing:
		return &RuleClassifier{scheme: SchemePointing, rules: pointingRules}, nil
	default:
		return nil, fmt.Errorf("gesture: unknown scheme %q", scheme)
	}
}

// Classify returns the label of the first matching rule, or None.
func (c *RuleClassifier) Classify(s features.FingerState) Label {
	for _, r := range c.rules {
		if r.Match(s) {
			return r.Label
		}
	}
	return None
}

// Scheme returns the scheme name.
func (c *RuleClassifier) Scheme() string {
	return c.scheme
}

// Rules returns a copy of the rule table.
func (c *RuleClassifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// countedFingers are the fingers the counting scheme looks at. The middle
// finger is left out so raising it never changes the result.
var countedFingers = []detector.Finger{detector.Thumb, detector.Index, detector.Ring, detector.Pinky}

// only matches when f is the single raised finger among countedFingers.
func only(f detector.Finger) func(features.FingerState) bool {
	return func(s features.FingerState) bool {
		for _, g := range countedFingers {
			if s.Up[g] != (g == f) {
				return false
			}
		}
		return true
	}
}

var countingRules = []Rule{
	{Name: "thumb", Label: Play, Match: only(detector.Thumb)},
	{Name: "index", Label: Pause, Match: only(detector.Index)},
	{Name: "ring", Label: VolumeUp, Match: only(detector.Ring)},
	{Name: "pinky", Label: VolumeDown, Match: only(detector.Pinky)},
}

// othersDown is true when thumb, middle, ring and pinky are all down, the
// shape of a hand pointing with its index finger.
func othersDown(s features.FingerState) bool {
	return !s.Up[detector.Thumb] && !s.Up[detector.Middle] && !s.Up[detector.Ring] && !s.Up[detector.Pinky]
}

func pointingTo(d features.Direction) func(features.FingerState) bool {
	return func(s features.FingerState) bool {
		return !s.Closed && othersDown(s) && s.Pointing == d
	}
}

var pointingRules = []Rule{
	{Name: "fist", Label: Pause, Match: func(s features.FingerState) bool {
		return s.Closed
	}},
	{Name: "peace", Label: Play, Match: func(s features.FingerState) bool {
		return !s.Closed &&
			s.Up[detector.Thumb] && s.Up[detector.Index] &&
			!s.Up[detector.Middle] && !s.Up[detector.Ring] && !s.Up[detector.Pinky]
	}},
	{Name: "point-right", Label: Skip, Match: pointingTo(features.DirRight)},
	{Name: "point-left", Label: Previous, Match: pointingTo(features.DirLeft)},
	{Name: "point-up", Label: VolumeUp, Match: pointingTo(features.DirUp)},
	{Name: "point-down", Label: VolumeDown, Match: pointingTo(features.DirDown)},
}
