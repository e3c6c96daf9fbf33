package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// GaussianBlurSize is the blur kernel applied before differencing.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
	// DefaultHold keeps the gate open after the last motion so that a hand
	// leaving the frame still reaches the detector.
	DefaultHold = time.Second
)

// ActivityGate decides whether a frame is worth sending to the landmark
// detector. A still scene closes the gate once the hold period has passed;
// any frame whose changed-pixel share exceeds the threshold reopens it.
//
// A threshold <= 0 disables gating and every frame passes.
type ActivityGate struct {
	threshold  float64
	hold       time.Duration
	prevGray   gocv.Mat
	hasPrev    bool
	lastMotion time.Time
	mu         sync.Mutex
}

// NewActivityGate creates a gate. threshold is a percentage of pixels.
func NewActivityGate(threshold float64, hold time.Duration) *ActivityGate {
	return &ActivityGate{
		threshold: threshold,
		hold:      hold,
		prevGray:  gocv.NewMat(),
	}
}

// Enabled reports whether the gate filters frames at all.
func (g *ActivityGate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold > 0
}

// Allow reports whether frame should be processed at time now, along with
// the percentage of pixels that changed since the previous frame.
func (g *ActivityGate) Allow(frame *gocv.Mat, now time.Time) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.threshold <= 0 {
		return true, 0
	}
	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	// First frame and size changes always pass.
	if !g.hasPrev || blurred.Rows() != g.prevGray.Rows() || blurred.Cols() != g.prevGray.Cols() {
		blurred.CopyTo(&g.prevGray)
		g.hasPrev = true
		g.lastMotion = now
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100
	blurred.CopyTo(&g.prevGray)

	if changed > g.threshold {
		g.lastMotion = now
		return true, changed
	}
	return now.Sub(g.lastMotion) <= g.hold, changed
}

// Reset forgets the baseline frame. The next frame always passes.
func (g *ActivityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
}

// Close releases the native baseline buffer.
func (g *ActivityGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prevGray.Close()
	g.prevGray = gocv.NewMat()
	g.hasPrev = false
}
