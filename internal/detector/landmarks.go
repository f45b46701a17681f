// Package detector provides hand landmark types and the detector boundary.
// Landmarks come from MediaPipe in normalized image coordinates: x grows to the
// right, y grows downward, both in [0,1].
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// Fingers lists all fingers in anatomical order.
var Fingers = [NumFingers]Finger{Thumb, Index, Middle, Ring, Pinky}

// Joints returns the four landmark indices of a finger from base to tip.
// For the thumb that is CMC, MCP, IP, tip; for the others MCP, PIP, DIP, tip.
func (f Finger) Joints() [4]int {
	base := 1 + int(f)*4
	return [4]int{base, base + 1, base + 2, base + 3}
}

// Tip returns the fingertip landmark index.
func (f Finger) Tip() int {
	return f.Joints()[3]
}

// Base returns the landmark where the finger leaves the palm
// (MCP for fingers, MCP for the thumb as well).
func (f Finger) Base() int {
	if f == Thumb {
		return ThumbMCP
	}
	return f.Joints()[0]
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Distance2D is the distance between p and q in the image plane.
func (p Point3D) Distance2D(q Point3D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Point returns the landmark at index i.
func (h *HandLandmarks) Point(i int) Point3D {
	return h.Points[i]
}

// Primary picks the hand the pipeline tracks: the first one reported.
// Returns nil when no hand was detected.
func Primary(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	h := hands[0]
	return &h
}

func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Normalize translates the landmarks so the wrist is at the origin and scales
// them so the wrist to middle-MCP distance is 1. Reference templates are
// compared in this space so hand size and position do not matter.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = h.Points[i].Sub(wrist)
	}

	scale := distance3D(Point3D{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
