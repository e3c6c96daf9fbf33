package gesture

import (
	"time"

	"github.com/ayusman/abhinaya/internal/geometry"
	"github.com/ayusman/abhinaya/internal/landmark"
)

// Blink detection constants.
const (
	// BlinkThreshold is the average eye aspect ratio below which the eyes count as closed.
	BlinkThreshold = 0.2
	// BlinkCooldown is the minimum time between two blink triggers.
	BlinkCooldown = 2000 * time.Millisecond
)

// AverageEAR returns the mean eye aspect ratio of both eyes of a face mesh.
func AverageEAR(face *landmark.FaceLandmarks) float64 {
	left := geometry.EyeAspectRatio(face.Points,
		landmark.LeftEyeTop, landmark.LeftEyeBottom, landmark.LeftEyeOuter, landmark.LeftEyeInner)
	right := geometry.EyeAspectRatio(face.Points,
		landmark.RightEyeTop, landmark.RightEyeBottom, landmark.RightEyeInner, landmark.RightEyeOuter)
	return (left + right) / 2
}

// BlinkDetector fires when the eyes close, at most once per BlinkCooldown.
// It is not safe for concurrent use.
type BlinkDetector struct {
	last      time.Time
	triggered bool
}

// NewBlinkDetector creates a BlinkDetector that has never fired.
func NewBlinkDetector() *BlinkDetector {
	return &BlinkDetector{}
}

// Observe feeds one average EAR sample taken at now. It returns true when
// the sample is below BlinkThreshold and more than BlinkCooldown has passed
// since the previous trigger; the first qualifying sample always fires.
func (b *BlinkDetector) Observe(ear float64, now time.Time) bool {
	if ear >= BlinkThreshold {
		return false
	}
	if b.triggered && now.Sub(b.last) <= BlinkCooldown {
		return false
	}
	b.last = now
	b.triggered = true
	return true
}

// LastTrigger returns the time of the last trigger and whether there was one.
func (b *BlinkDetector) LastTrigger() (time.Time, bool) {
	return b.last, b.triggered
}

// Reset forgets the last trigger.
func (b *BlinkDetector) Reset() {
	b.last = time.Time{}
	b.triggered = false
}
