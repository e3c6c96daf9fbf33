// Package interaction turns per-frame tracker results into overlay state
// and side effects. All events go through Machine.Apply, one at a time, in
// arrival order; whatever arrives last wins.
package interaction

import (
	"time"

	"github.com/ayusman/abhinaya/internal/landmark"
)

// Event is a message consumed by Machine.Apply.
type Event interface {
	eventType() string
}

// HandFrameResult is one hand-tracker result: zero, one or two hands.
// Width and Height are the frame size in pixels; zero means the default
// camera resolution.
type HandFrameResult struct {
	Hands  []landmark.HandLandmarks
	Width  int
	Height int
	At     time.Time
}

// FaceFrameResult is one face-tracker result. Face is nil when no face was found.
type FaceFrameResult struct {
	Face *landmark.FaceLandmarks
	At   time.Time
}

// ExpressionResult maps expression labels to classifier confidence in [0,1].
type ExpressionResult struct {
	Scores map[string]float64
}

// TranscriptResult is one recognized speech phrase.
type TranscriptResult struct {
	Text string
}

// RecordingCommand explicitly starts or stops the recording.
type RecordingCommand struct {
	Start bool
	At    time.Time
}

// RecordingChunk is a piece of encoded media captured by the recording collaborator.
type RecordingChunk struct {
	Data []byte
}

func (HandFrameResult) eventType() string  { return TypeHands }
func (FaceFrameResult) eventType() string  { return TypeFace }
func (ExpressionResult) eventType() string { return TypeExpressions }
func (TranscriptResult) eventType() string { return TypeTranscript }
func (RecordingCommand) eventType() string { return TypeRecording }
func (RecordingChunk) eventType() string   { return TypeChunk }

// TypeOf returns the wire name of an event.
func TypeOf(ev Event) string {
	return ev.eventType()
}
