package landmark

import "math"

// VictoryLandmarks returns a right hand making a victory sign: index and
// middle fingers extended upward, ring, pinky and thumb folded.
func VictoryLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb tucked across the palm, tip below the IP joint
	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	h.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	h.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.66, Z: -0.02}
	h.Points[ThumbTip] = Point3D{X: 0.53, Y: 0.69, Z: -0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.66, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.53, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.44, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.59, Y: 0.36, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.65, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.49, Y: 0.51, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.42, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.47, Y: 0.33, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.67, Z: -0.02}
	h.Points[RingPIP] = Point3D{X: 0.45, Y: 0.62, Z: -0.05}
	h.Points[RingDIP] = Point3D{X: 0.47, Y: 0.66, Z: -0.04}
	h.Points[RingTip] = Point3D{X: 0.48, Y: 0.69, Z: -0.02}

	h.Points[PinkyMCP] = Point3D{X: 0.41, Y: 0.70, Z: -0.02}
	h.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.66, Z: -0.05}
	h.Points[PinkyDIP] = Point3D{X: 0.43, Y: 0.69, Z: -0.04}
	h.Points[PinkyTip] = Point3D{X: 0.44, Y: 0.72, Z: -0.02}

	return h
}

// OpenPalmLandmarks returns a right hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	h.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	h.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	h.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	h.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	h.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}

// HandAtAngle returns a hand whose wrist-to-index-MCP vector points at the
// given angle in degrees. Every other landmark sits on the wrist.
func HandAtAngle(wrist Point3D, degrees float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.9}
	for i := range h.Points {
		h.Points[i] = wrist
	}
	rad := degrees * math.Pi / 180
	h.Points[IndexMCP] = Point3D{
		X: wrist.X + 0.1*math.Cos(rad),
		Y: wrist.Y + 0.1*math.Sin(rad),
		Z: wrist.Z,
	}
	return h
}

// FaceWithEAR returns a full face mesh whose eyes both have the given
// eye-aspect-ratio. Eye width is 0.1 in normalized units.
func FaceWithEAR(ear float64) *FaceLandmarks {
	f := &FaceLandmarks{Points: make([]Point3D, NumFaceLandmarks)}
	for i := range f.Points {
		f.Points[i] = Point3D{X: 0.5, Y: 0.5}
	}

	const width = 0.1
	half := ear * width / 2

	f.Points[LeftEyeOuter] = Point3D{X: 0.67, Y: 0.42}
	f.Points[LeftEyeInner] = Point3D{X: 0.57, Y: 0.42}
	f.Points[LeftEyeTop] = Point3D{X: 0.62, Y: 0.42 - half}
	f.Points[LeftEyeBottom] = Point3D{X: 0.62, Y: 0.42 + half}

	f.Points[RightEyeInner] = Point3D{X: 0.43, Y: 0.42}
	f.Points[RightEyeOuter] = Point3D{X: 0.33, Y: 0.42}
	f.Points[RightEyeTop] = Point3D{X: 0.38, Y: 0.42 - half}
	f.Points[RightEyeBottom] = Point3D{X: 0.38, Y: 0.42 + half}

	return f
}
