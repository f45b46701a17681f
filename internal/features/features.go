// Package features reduces a hand's landmarks to a compact per-finger state:
// which fingers are raised, where the index finger points, and whether the
// hand is closed into a fist.
package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/skipspot/internal/detector"
)

// Direction is the dominant direction of the index finger.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirUp
	DirDown
)

var directionNames = map[Direction]string{
	DirNone:  "none",
	DirLeft:  "left",
	DirRight: "right",
	DirUp:    "up",
	DirDown:  "down",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// FingerState is the per-frame reading of one hand.
type FingerState struct {
	Up       [detector.NumFingers]bool
	Pointing Direction
	Closed   bool
}

// IsUp reports whether finger f is raised.
func (s FingerState) IsUp(f detector.Finger) bool {
	return s.Up[f]
}

// Count returns the number of raised fingers.
func (s FingerState) Count() int {
	n := 0
	for _, up := range s.Up {
		if up {
			n++
		}
	}
	return n
}

// String renders the state compactly, e.g. "T i m r p ->right".
func (s FingerState) String() string {
	var b strings.Builder
	for f, up := range s.Up {
		name := detector.Finger(f).String()[:1]
		if up {
			name = strings.ToUpper(name)
		}
		b.WriteString(name)
	}
	if s.Pointing != DirNone {
		b.WriteString(" ->")
		b.WriteString(s.Pointing.String())
	}
	if s.Closed {
		b.WriteString(" closed")
	}
	return b.String()
}

// Extractor derives a FingerState from landmarks. The boolean is false when
// there is no hand, which callers treat as "no observation".
type Extractor interface {
	Extract(hand *detector.HandLandmarks) (FingerState, bool)
}

// Method names accepted by New.
const (
	MethodOffset = "offset"
	MethodAngle  = "angle"
)

// Thresholds tune both extractors. Coordinates are normalized image units.
type Thresholds struct {
	// Vertical is how far a fingertip must rise above the wrist.
	Vertical float64
	// Lateral is the minimum index MCP to tip displacement that counts as pointing.
	Lateral float64
	// Angle is the largest joint bend, in degrees, of a straight finger.
	Angle float64
	// FistRadius is the wrist distance all tips must stay within for a fist.
	FistRadius float64
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Vertical:   0.25,
		Lateral:    0.15,
		Angle:      15,
		FistRadius: 0.2,
	}
}

// New returns the extractor for method.
func New(method string, th Thresholds) (Extractor, error) {
	switch method {
	case MethodOffset, "":
		return &OffsetExtractor{Thresholds: th}, nil
	case MethodAngle:
		return &AngleExtractor{Thresholds: th}, nil
	default:
		return nil, fmt.Errorf("features: unknown method %q", method)
	}
}

// OffsetExtractor marks a finger up when its tip sits at least
// Thresholds.Vertical above the wrist.
type OffsetExtractor struct {
	Thresholds Thresholds
}

func (e *OffsetExtractor) Extract(hand *detector.HandLandmarks) (FingerState, bool) {
	if hand == nil {
		return FingerState{}, false
	}
	wrist := hand.Point(detector.Wrist)
	var s FingerState
	for _, f := range detector.Fingers {
		tip := hand.Point(f.Tip())
		s.Up[f] = wrist.Y-tip.Y >= e.Thresholds.Vertical
	}
	s.Pointing = pointing(hand, e.Thresholds.Lateral)
	s.Closed = closed(hand, e.Thresholds.FistRadius)
	return s, true
}

// AngleExtractor marks a finger up when the bends at both middle joints are
// under Thresholds.Angle degrees. A bend is 180 minus the interior angle the
// joint forms with its neighbours, so a straight finger bends 0 degrees.
type AngleExtractor struct {
	Thresholds Thresholds
}

func (e *AngleExtractor) Extract(hand *detector.HandLandmarks) (FingerState, bool) {
	if hand == nil {
		return FingerState{}, false
	}
	var s FingerState
	for _, f := range detector.Fingers {
		j := f.Joints()
		first := Bend(hand.Point(j[0]), hand.Point(j[1]), hand.Point(j[2]))
		second := Bend(hand.Point(j[1]), hand.Point(j[2]), hand.Point(j[3]))
		s.Up[f] = first < e.Thresholds.Angle && second < e.Thresholds.Angle
	}
	s.Pointing = pointing(hand, e.Thresholds.Lateral)
	s.Closed = closed(hand, e.Thresholds.FistRadius)
	return s, true
}

// InteriorAngle returns the angle at b, in degrees, of the triangle a-b-c,
// computed with the law of cosines in the image plane.
func InteriorAngle(a, b, c detector.Point3D) float64 {
	ab := a.Distance2D(b)
	bc := b.Distance2D(c)
	ac := a.Distance2D(c)
	if ab == 0 || bc == 0 {
		return 180
	}
	cos := (ab*ab + bc*bc - ac*ac) / (2 * ab * bc)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Bend returns how far the joint at b deviates from a straight line.
func Bend(a, b, c detector.Point3D) float64 {
	return 180 - InteriorAngle(a, b, c)
}

// pointing classifies the index MCP to tip vector by its dominant axis.
// Image y grows downward, so a negative dy is up.
func pointing(hand *detector.HandLandmarks, minLength float64) Direction {
	v := hand.Point(detector.IndexTip).Sub(hand.Point(detector.IndexMCP))
	if math.Abs(v.X) >= math.Abs(v.Y) {
		switch {
		case v.X >= minLength:
			return DirRight
		case v.X <= -minLength:
			return DirLeft
		}
		return DirNone
	}
	switch {
	case v.Y <= -minLength:
		return DirUp
	case v.Y >= minLength:
		return DirDown
	}
	return DirNone
}

func closed(hand *detector.HandLandmarks, radius float64) bool {
	wrist := hand.Point(detector.Wrist)
	for _, f := range detector.Fingers {
		if hand.Point(f.Tip()).Distance2D(wrist) > radius {
			return false
		}
	}
	return true
}
