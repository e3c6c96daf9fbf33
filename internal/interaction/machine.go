package interaction

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/abhinaya/internal/expression"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/geometry"
	"github.com/ayusman/abhinaya/internal/landmark"
	"github.com/ayusman/abhinaya/internal/recorder"
	"github.com/ayusman/abhinaya/internal/voice"
)

const (
	MinZoom = 1.0
	MaxZoom = 3.0

	// PinchPixels is the wrist distance that maps to 1x in two-hand mode.
	PinchPixels = 150.0
	// DeadZoneDegrees filters tracker jitter in rotation mode.
	DeadZoneDegrees = 5.0
	// RotationGain converts degrees of wrist rotation into zoom.
	RotationGain  = 0.01
	VoiceZoomStep = 0.1

	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
)

// View is the overlay state readers render from. It is a value; mutating a
// copy has no effect on the Machine.
type View struct {
	Scale             float64               `json:"scale"`
	ZoomText          string                `json:"zoom_text"`
	DistanceText      string                `json:"distance_text"`
	RotationIndicator bool                  `json:"rotation_indicator"`
	Expression        expression.Expression `json:"expression"`
	EmotionLabel      string                `json:"emotion_label"`
	Recording         bool                  `json:"recording"`
	Hands             int                   `json:"hands"`
	FaceVisible       bool                  `json:"face_visible"`
}

// Machine holds the interaction state. It is not safe for concurrent use;
// callers serialize Apply on a single goroutine.
type Machine struct {
	zoom         float64
	rotationZoom float64
	prevAngle    float64
	hasPrevAngle bool

	blink     *gesture.BlinkDetector
	recording *recorder.Session
	view      View
}

// New returns a Machine in the initial state: 1x zoom, nothing recording.
func New() *Machine {
	m := &Machine{
		zoom:         MinZoom,
		rotationZoom: MinZoom,
		blink:        gesture.NewBlinkDetector(),
		recording:    recorder.NewSession(),
	}
	m.view = View{
		Expression:   expression.Neutral,
		EmotionLabel: expression.Neutral.Label(),
	}
	m.resetZoom()
	return m
}

// Apply folds one event into the state and returns the side effects it caused.
func (m *Machine) Apply(ev Event) []Effect {
	switch e := ev.(type) {
	case HandFrameResult:
		return m.applyHands(e)
	case FaceFrameResult:
		return m.applyFace(e)
	case ExpressionResult:
		m.applyExpression(e)
	case TranscriptResult:
		return m.applyTranscript(e)
	case RecordingCommand:
		if e.Start {
			return m.startRecording(SourceManual, e.At)
		}
		return m.stopRecording(SourceManual, e.At)
	case RecordingChunk:
		m.recording.Append(e.Data)
	}
	return nil
}

func (m *Machine) applyHands(e HandFrameResult) []Effect {
	m.view.RotationIndicator = false
	m.view.Hands = len(e.Hands)

	switch len(e.Hands) {
	case 2:
		w, h := frameSize(e.Width, e.Height)
		dist := geometry.EuclideanDistance(
			e.Hands[0].Points[landmark.Wrist],
			e.Hands[1].Points[landmark.Wrist],
			float64(w), float64(h),
		)
		m.zoom = geometry.Clamp(dist/PinchPixels, MinZoom, MaxZoom)
		m.view.Scale = m.zoom
		m.view.ZoomText = formatZoom(m.zoom)
		m.view.DistanceText = fmt.Sprintf("%.1fm", dist/100)
		m.hasPrevAngle = false
		return nil

	case 1:
		hand := &e.Hands[0]
		angle := geometry.AngleDegrees(hand.Points[landmark.Wrist], hand.Points[landmark.IndexMCP])
		if m.hasPrevAngle {
			delta := geometry.NormalizeDelta(angle - m.prevAngle)
			if math.Abs(delta) > DeadZoneDegrees {
				m.rotationZoom = geometry.Clamp(m.rotationZoom+delta*RotationGain, MinZoom, MaxZoom)
				m.view.RotationIndicator = true
			}
			m.view.Scale = m.rotationZoom
			m.view.ZoomText = formatZoom(m.rotationZoom)
			m.view.DistanceText = formatZoom(m.rotationZoom)
		}
		m.prevAngle = angle
		m.hasPrevAngle = true

		if gesture.IsVictory(hand) {
			return m.startRecording(SourceGesture, e.At)
		}
		return nil

	default:
		m.zoom = MinZoom
		m.rotationZoom = MinZoom
		m.hasPrevAngle = false
		m.resetZoom()
		return nil
	}
}

func (m *Machine) applyFace(e FaceFrameResult) []Effect {
	// Short meshes are treated as no face.
	if e.Face == nil || e.Face.Validate() != nil {
		m.view.FaceVisible = false
		return nil
	}
	m.view.FaceVisible = true

	if m.blink.Observe(gesture.AverageEAR(e.Face), e.At) {
		return []Effect{{Kind: EffectSnapshot, Source: SourceBlink, At: e.At}}
	}
	return nil
}

func (m *Machine) applyExpression(e ExpressionResult) {
	expr := expression.Argmax(e.Scores)
	if !expr.Known() {
		expr = expression.Neutral
	}
	m.view.Expression = expr
	m.view.EmotionLabel = expr.Label()
}

func (m *Machine) applyTranscript(e TranscriptResult) []Effect {
	var effects []Effect
	for _, cmd := range voice.Parse(e.Text) {
		switch cmd {
		case voice.StartCamera:
			effects = append(effects, Effect{Kind: EffectStartCamera, Source: SourceVoice})
		case voice.SavePicture:
			effects = append(effects, Effect{Kind: EffectSnapshot, Source: SourceVoice})
		case voice.Zoom:
			m.zoom = math.Min(m.zoom+VoiceZoomStep, MaxZoom)
			m.view.Scale = m.zoom
			m.view.ZoomText = formatZoom(m.zoom)
		}
	}
	return effects
}

func (m *Machine) startRecording(src Source, at time.Time) []Effect {
	if !m.recording.Start(at) {
		return nil
	}
	m.view.Recording = true
	return []Effect{{Kind: EffectStartRecording, Source: src, At: at}}
}

func (m *Machine) stopRecording(src Source, at time.Time) []Effect {
	data, ok := m.recording.Stop()
	if !ok {
		return nil
	}
	m.view.Recording = false
	return []Effect{{Kind: EffectRecordingFinished, Source: src, At: at, Data: data}}
}

func (m *Machine) resetZoom() {
	m.view.Scale = MinZoom
	m.view.ZoomText = "1.0x"
	m.view.DistanceText = "1.0m"
}

// View returns a copy of the current overlay state.
func (m *Machine) View() View { return m.view }

// Zoom returns the pinch/voice zoom factor.
func (m *Machine) Zoom() float64 { return m.zoom }

// RotationZoom returns the accumulated rotation zoom.
func (m *Machine) RotationZoom() float64 { return m.rotationZoom }

// PrevAngle returns the last one-hand wrist angle, if one is remembered.
func (m *Machine) PrevAngle() (float64, bool) { return m.prevAngle, m.hasPrevAngle }

// LastBlink returns when the blink snapshot last fired.
func (m *Machine) LastBlink() (time.Time, bool) { return m.blink.LastTrigger() }

// Recording reports whether a recording session is active.
func (m *Machine) Recording() bool { return m.recording.Active() }

// RecordedChunks returns the number of chunks in the active session.
func (m *Machine) RecordedChunks() int { return m.recording.Chunks() }

func frameSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return DefaultFrameWidth, DefaultFrameHeight
	}
	return w, h
}

func formatZoom(z float64) string {
	return fmt.Sprintf("%.1fx", z)
}
