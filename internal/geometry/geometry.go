// Package geometry implements the closed-form measurements taken over
// landmark coordinates: angles, pixel distances and the eye aspect ratio.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/ayusman/abhinaya/internal/landmark"
)

// AngleDegrees returns the direction of the vector p1->p2 in degrees, in
// the range (-180, 180]. Coordinates are y-down, so a vector pointing up
// the image has a negative angle.
func AngleDegrees(p1, p2 landmark.Point3D) float64 {
	d := p2.XY().Sub(p1.XY())
	deg := (s1.Angle(math.Atan2(d.Y, d.X)) * s1.Radian).Degrees()
	if deg <= -180 {
		deg += 360
	}
	return deg
}

// EuclideanDistance returns the distance between p1 and p2 after scaling the
// normalized deltas to pixels by the frame width (scaleX) and height (scaleY).
func EuclideanDistance(p1, p2 landmark.Point3D, scaleX, scaleY float64) float64 {
	d := p1.XY().Sub(p2.XY())
	return r2.Point{X: d.X * scaleX, Y: d.Y * scaleY}.Norm()
}

// EyeAspectRatio divides the vertical eye opening (top-bottom) by the
// horizontal eye width (left-right), in normalized space. Smaller values
// mean a more closed eye. A degenerate zero-width eye yields +Inf.
func EyeAspectRatio(points []landmark.Point3D, top, bottom, left, right int) float64 {
	vertical := points[top].XY().Sub(points[bottom].XY()).Norm()
	horizontal := points[left].XY().Sub(points[right].XY()).Norm()
	if horizontal == 0 {
		return math.Inf(1)
	}
	return vertical / horizontal
}

// NormalizeDelta folds an angle difference into (-180, 180].
func NormalizeDelta(delta float64) float64 {
	if delta > 180 {
		delta -= 360
	}
	if delta <= -180 {
		delta += 360
	}
	return delta
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
