// Package overlay draws the hand skeleton, the zoom and the HUD over a
// camera frame.
package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/landmark"
)

var (
	SkeletonColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	JointColor    = color.RGBA{R: 0, G: 200, B: 255, A: 255}
)

// JointRadius is the half-size in pixels of the square drawn on each landmark.
const JointRadius = 2

// Render composes one overlay frame: the camera image, the skeleton of every
// hand, the zoom as a centered scale and finally the HUD, which is not zoomed.
func Render(frame image.Image, hands []landmark.HandLandmarks, view interaction.View) *image.RGBA {
	b := frame.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, b.Min, draw.Src)

	for i := range hands {
		DrawSkeleton(canvas, &hands[i])
	}

	out := Zoom(canvas, view.Scale)
	DrawHUD(out, view)
	return out
}

// DrawSkeleton draws the hand connections and joints onto img. Bones are
// clipped to the image, so far-off points cost no more than visible ones.
func DrawSkeleton(img *image.RGBA, hand *landmark.HandLandmarks) {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	px := func(p landmark.Point3D) (float64, float64) {
		return p.X * w, p.Y * h
	}

	for _, c := range landmark.HandConnections {
		x0, y0 := px(hand.Points[c[0]])
		x1, y1 := px(hand.Points[c[1]])
		if a, b, ok := clipSegment(x0, y0, x1, y1, bounds); ok {
			drawLine(img, a, b, SkeletonColor)
		}
	}

	joints := image.NewUniform(JointColor)
	for _, p := range hand.Points {
		x, y := px(p)
		if !inflated(x, y, bounds, JointRadius) {
			continue
		}
		q := image.Point{X: int(x), Y: int(y)}
		r := image.Rect(q.X-JointRadius, q.Y-JointRadius, q.X+JointRadius+1, q.Y+JointRadius+1)
		draw.Draw(img, r.Intersect(bounds), joints, image.Point{}, draw.Src)
	}
}

// Zoom crops the centered (w/scale x h/scale) region and scales it back to
// full size. A scale <= 1 returns src unchanged.
func Zoom(src *image.RGBA, scale float64) *image.RGBA {
	if scale <= 1 {
		return src
	}

	b := src.Bounds()
	cw := int(float64(b.Dx()) / scale)
	ch := int(float64(b.Dy()) / scale)
	x0 := b.Min.X + (b.Dx()-cw)/2
	y0 := b.Min.Y + (b.Dy()-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch)

	dst := image.NewRGBA(b)
	draw.BiLinear.Scale(dst, b, src, crop, draw.Src, nil)
	return dst
}

// EncodePNG encodes a rendered overlay for saving as a snapshot.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inflated reports whether (x, y) lies within r grown by margin pixels.
func inflated(x, y float64, r image.Rectangle, margin int) bool {
	m := float64(margin)
	return x >= float64(r.Min.X)-m && x < float64(r.Max.X)+m &&
		y >= float64(r.Min.Y)-m && y < float64(r.Max.Y)+m
}

// clipSegment clips the segment (x0,y0)-(x1,y1) to the pixels of r
// (Liang-Barsky). It returns false when nothing of the segment is inside
// or a coordinate is not finite.
func clipSegment(x0, y0, x1, y1 float64, r image.Rectangle) (image.Point, image.Point, bool) {
	for _, v := range [...]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return image.Point{}, image.Point{}, false
		}
	}
	if r.Empty() {
		return image.Point{}, image.Point{}, false
	}

	xmin, ymin := float64(r.Min.X), float64(r.Min.Y)
	xmax, ymax := float64(r.Max.X-1), float64(r.Max.Y-1)
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return image.Point{}, image.Point{}, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return image.Point{}, image.Point{}, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return image.Point{}, image.Point{}, false
			}
			t1 = math.Min(t1, t)
		}
	}

	a := image.Point{X: int(math.Round(x0 + t0*dx)), Y: int(math.Round(y0 + t0*dy))}
	b := image.Point{X: int(math.Round(x0 + t1*dx)), Y: int(math.Round(y0 + t1*dy))}
	return a, b, true
}

// drawLine is Bresenham's algorithm; pixels outside img are skipped.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
