// Package landmark defines the hand and face landmark sets produced by the
// MediaPipe trackers. Index positions are fixed by the producing model.
package landmark

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

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

// Face mesh indices read by the eye checks. The mesh has 468 points,
// 478 when iris refinement is enabled.
const (
	LeftEyeTop    = 386
	LeftEyeBottom = 374
	LeftEyeOuter  = 263
	LeftEyeInner  = 362

	RightEyeTop    = 159
	RightEyeBottom = 145
	RightEyeInner  = 133
	RightEyeOuter  = 33

	NumFaceLandmarks = 468
)

// ErrInvalidFace is returned when a face landmark set is shorter than the mesh topology.
var ErrInvalidFace = errors.New("face landmark set is too short")

// Point3D represents a normalized landmark coordinate. X and Y are in [0,1]
// relative to the frame, y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY projects the point onto the image plane.
func (p Point3D) XY() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

var (
	// ErrInvalidHand is returned when a hand landmark set does not have exactly 21 points.
	ErrInvalidHand = errors.New("hand landmark set must have 21 points")
	// ErrOutOfRange is returned for a landmark that is not finite or lies
	// further than MaxOffscreen outside the frame.
	ErrOutOfRange = errors.New("landmark out of range")
)

// MaxOffscreen is how far, in normalized units, a tracked point may sit
// outside [0,1]. Trackers extrapolate joints of a hand leaving the frame.
const MaxOffscreen = 0.5

// InRange reports whether p is finite and X, Y are within MaxOffscreen of
// the frame.
func (p Point3D) InRange() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.X >= -MaxOffscreen && p.X <= 1+MaxOffscreen &&
		p.Y >= -MaxOffscreen && p.Y <= 1+MaxOffscreen
}

// NewHand builds a HandLandmarks from a point slice as delivered by a
// tracker. The slice must hold exactly NumLandmarks points in model order,
// each of them InRange.
func NewHand(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	h := HandLandmarks{Handedness: handedness, Score: score}
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d", ErrInvalidHand, len(points))
	}
	for i, p := range points {
		if !p.InRange() {
			return h, fmt.Errorf("%w: point %d at (%g, %g, %g)", ErrOutOfRange, i, p.X, p.Y, p.Z)
		}
	}
	copy(h.Points[:], points)
	return h, nil
}

// FaceLandmarks is a single face mesh.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Validate checks that every index used by this module is present.
func (f *FaceLandmarks) Validate() error {
	if f == nil {
		return nil
	}
	if len(f.Points) < NumFaceLandmarks {
		return fmt.Errorf("%w: got %d points, want at least %d", ErrInvalidFace, len(f.Points), NumFaceLandmarks)
	}
	return nil
}

// Connection is a pair of landmark indices joined by a bone in the hand skeleton.
type Connection [2]int

// HandConnections lists the skeleton edges drawn over a detected hand.
var HandConnections = []Connection{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}
