package detector

// Preset hands for tests and demos. All poses share one right hand seen
// palm-forward: wrist at (0.5, 0.8), knuckles around y=0.6. An extended
// finger runs straight from its knuckle; a curled finger folds back so its
// tip sits just below the knuckle. The thumb only extends upward.

var knuckles = [NumFingers]Point3D{
	Index:  {X: 0.55, Y: 0.62},
	Middle: {X: 0.50, Y: 0.60},
	Ring:   {X: 0.45, Y: 0.62},
	Pinky:  {X: 0.40, Y: 0.65},
}

var segments = [3]float64{0.10, 0.07, 0.06}

// Vectors a finger can extend along.
var (
	towardUp    = Point3D{Y: -1}
	towardLeft  = Point3D{X: -1}
	towardRight = Point3D{X: 1}
)

func baseHand() HandLandmarks {
	return HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Points:     [NumLandmarks]Point3D{Wrist: {X: 0.5, Y: 0.8}},
	}
}

func (h *HandLandmarks) extend(f Finger, dir Point3D) {
	if f == Thumb {
		h.Points[ThumbCMC] = Point3D{X: 0.58, Y: 0.76}
		h.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65}
		h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.52}
		h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.40}
		return
	}
	joints := f.Joints()
	p := knuckles[f]
	h.Points[joints[0]] = p
	for i, length := range segments {
		p = Point3D{X: p.X + dir.X*length, Y: p.Y + dir.Y*length}
		h.Points[joints[i+1]] = p
	}
}

func (h *HandLandmarks) curl(f Finger) {
	if f == Thumb {
		h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
		h.Points[ThumbMCP] = Point3D{X: 0.57, Y: 0.72}
		h.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.70}
		h.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.72}
		return
	}
	k := knuckles[f]
	j := f.Joints()
	h.Points[j[0]] = k
	h.Points[j[1]] = Point3D{X: k.X, Y: k.Y - 0.04}
	h.Points[j[2]] = Point3D{X: k.X + 0.02, Y: k.Y}
	h.Points[j[3]] = Point3D{X: k.X, Y: k.Y + 0.05}
}

// poseWith builds a hand where the listed fingers extend upward and the rest curl.
func poseWith(up ...Finger) HandLandmarks {
	h := baseHand()
	for _, f := range Fingers {
		h.curl(f)
	}
	for _, f := range up {
		h.extend(f, towardUp)
	}
	return h
}

// flipVertical mirrors the hand top to bottom, preserving every distance and angle.
func flipVertical(h HandLandmarks) HandLandmarks {
	for i := range h.Points {
		h.Points[i].Y = 1 - h.Points[i].Y
	}
	return h
}

// ThumbsUpLandmarks: thumb raised, all other fingers curled.
func ThumbsUpLandmarks() HandLandmarks { return poseWith(Thumb) }

// IndexUpLandmarks: index raised alone. Also reads as pointing up.
func IndexUpLandmarks() HandLandmarks { return poseWith(Index) }

// RingUpLandmarks: ring finger raised alone.
func RingUpLandmarks() HandLandmarks { return poseWith(Ring) }

// PinkyUpLandmarks: pinky raised alone.
func PinkyUpLandmarks() HandLandmarks { return poseWith(Pinky) }

// PeaceLandmarks: thumb and index raised, the rest curled.
func PeaceLandmarks() HandLandmarks { return poseWith(Thumb, Index) }

// FistLandmarks: every finger curled, all tips close to the wrist.
func FistLandmarks() HandLandmarks { return poseWith() }

// OpenPalmLandmarks: every finger raised.
func OpenPalmLandmarks() HandLandmarks {
	return poseWith(Thumb, Index, Middle, Ring, Pinky)
}

// PointUpLandmarks: index straight up, the rest curled.
func PointUpLandmarks() HandLandmarks { return IndexUpLandmarks() }

// PointRightLandmarks: index extended horizontally toward +x.
func PointRightLandmarks() HandLandmarks {
	h := poseWith()
	h.extend(Index, towardRight)
	return h
}

// PointLeftLandmarks: index extended horizontally toward -x.
func PointLeftLandmarks() HandLandmarks {
	h := poseWith()
	h.extend(Index, towardLeft)
	return h
}

// PointDownLandmarks: an inverted hand with the index hanging down.
func PointDownLandmarks() HandLandmarks {
	return flipVertical(IndexUpLandmarks())
}
