// Package detector runs the MediaPipe hand and face trackers over camera
// frames and returns their landmarks in model order.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/landmark"
)

// Result is everything the trackers found in one frame.
type Result struct {
	Hands []landmark.HandLandmarks
	// Face is nil when no face was found or face tracking is off.
	Face *landmark.FaceLandmarks
	// Expressions maps expression labels to confidence. Nil when the
	// classifier is off.
	Expressions map[string]float64
}

// Detector is implemented by landmark trackers.
type Detector interface {
	// Detect analyzes a video frame. An empty Result is not an error.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds tracker options passed to the detector process.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Face enables the face mesh tracker used for blink detection.
	Face bool

	// Expressions enables the facial expression classifier.
	Expressions bool
}

// DefaultConfig returns the settings used by the overlay.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		Face:            true,
		Expressions:     true,
	}
}
