package interaction

import "time"

// EffectKind names a side effect the caller must carry out.
type EffectKind string

const (
	// EffectSnapshot asks for the current overlay to be saved as an image.
	EffectSnapshot EffectKind = "snapshot"
	// EffectStartRecording asks the media collaborator to start capturing chunks.
	EffectStartRecording EffectKind = "start_recording"
	// EffectRecordingFinished carries the assembled recording in Effect.Data.
	EffectRecordingFinished EffectKind = "recording_finished"
	// EffectStartCamera asks for the camera to be started.
	EffectStartCamera EffectKind = "start_camera"
)

// Source records what caused an effect.
type Source string

const (
	SourceBlink   Source = "blink"
	SourceVoice   Source = "voice"
	SourceGesture Source = "gesture"
	SourceManual  Source = "manual"
)

// Effect is returned by Machine.Apply.
type Effect struct {
	Kind   EffectKind `json:"effect"`
	Source Source     `json:"source"`
	At     time.Time  `json:"at"`
	Data   []byte     `json:"-"`
}
