// Package gesture classifies hand poses and facial signals from landmark sets.
package gesture

import "github.com/ayusman/abhinaya/internal/landmark"

// IsVictory reports whether the hand shows a victory (peace) sign: index and
// middle fingertips above their PIP joints, ring and pinky fingertips below
// theirs, and the thumb tip below the thumb IP joint.
//
// The check compares raw y coordinates, so it assumes an upright hand. A hand
// held sideways or upside down can be misclassified.
func IsVictory(hand *landmark.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	p := &hand.Points

	indexExtended := p[landmark.IndexTip].Y < p[landmark.IndexPIP].Y
	middleExtended := p[landmark.MiddleTip].Y < p[landmark.MiddlePIP].Y
	othersFolded := p[landmark.RingTip].Y > p[landmark.RingPIP].Y &&
		p[landmark.PinkyTip].Y > p[landmark.PinkyPIP].Y &&
		p[landmark.ThumbTip].Y > p[landmark.ThumbIP].Y

	return indexExtended && middleExtended && othersFolded
}
