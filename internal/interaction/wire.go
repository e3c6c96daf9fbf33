package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/abhinaya/internal/landmark"
)

// Wire names of inbound event types.
const (
	TypeHands       = "hands"
	TypeFace        = "face"
	TypeExpressions = "expressions"
	TypeTranscript  = "transcript"
	TypeRecording   = "recording"
	TypeChunk       = "chunk"
)

var (
	// ErrUnknownEvent is returned for an envelope whose type is not recognized.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrInvalidEvent is returned for an envelope whose payload is malformed.
	ErrInvalidEvent = errors.New("invalid event")
)

// envelope is the JSON form of every inbound event. Only the fields
// relevant to Type are read.
type envelope struct {
	Type      string             `json:"type"`
	Timestamp int64              `json:"timestamp,omitempty"` // unix millis
	Hands     []jsonHand         `json:"hands,omitempty"`
	Width     int                `json:"width,omitempty"`
	Height    int                `json:"height,omitempty"`
	Face      *jsonFace          `json:"face,omitempty"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	Text      string             `json:"text,omitempty"`
	Action    string             `json:"action,omitempty"`
	Data      []byte             `json:"data,omitempty"`
}

type jsonHand struct {
	Points     []landmark.Point3D `json:"points"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
}

type jsonFace struct {
	Points []landmark.Point3D `json:"points"`
}

// DecodeEvent parses one JSON envelope. now stamps events that carry no
// timestamp of their own.
func DecodeEvent(data []byte, now time.Time) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	at := now
	if env.Timestamp > 0 {
		at = time.UnixMilli(env.Timestamp)
	}

	switch env.Type {
	case TypeHands:
		hands := make([]landmark.HandLandmarks, 0, len(env.Hands))
		for i, h := range env.Hands {
			hl, err := landmark.NewHand(h.Points, h.Handedness, h.Score)
			if err != nil {
				return nil, fmt.Errorf("%w: hand %d: %v", ErrInvalidEvent, i, err)
			}
			hands = append(hands, hl)
		}
		return HandFrameResult{Hands: hands, Width: env.Width, Height: env.Height, At: at}, nil

	case TypeFace:
		ev := FaceFrameResult{At: at}
		if env.Face != nil {
			face := &landmark.FaceLandmarks{Points: env.Face.Points}
			if err := face.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
			}
			ev.Face = face
		}
		return ev, nil

	case TypeExpressions:
		return ExpressionResult{Scores: env.Scores}, nil

	case TypeTranscript:
		return TranscriptResult{Text: env.Text}, nil

	case TypeRecording:
		switch env.Action {
		case "start":
			return RecordingCommand{Start: true, At: at}, nil
		case "stop":
			return RecordingCommand{Start: false, At: at}, nil
		}
		return nil, fmt.Errorf("%w: recording action %q", ErrInvalidEvent, env.Action)

	case TypeChunk:
		return RecordingChunk{Data: env.Data}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

// EncodeEvent is the inverse of DecodeEvent. It is used to record event
// sequences for replay.
func EncodeEvent(ev Event) ([]byte, error) {
	env := envelope{Type: ev.eventType()}

	switch e := ev.(type) {
	case HandFrameResult:
		env.Timestamp = millis(e.At)
		env.Width, env.Height = e.Width, e.Height
		env.Hands = make([]jsonHand, len(e.Hands))
		for i, h := range e.Hands {
			env.Hands[i] = jsonHand{
				Points:     append([]landmark.Point3D(nil), h.Points[:]...),
				Handedness: h.Handedness,
				Score:      h.Score,
			}
		}
	case FaceFrameResult:
		env.Timestamp = millis(e.At)
		if e.Face != nil {
			env.Face = &jsonFace{Points: e.Face.Points}
		}
	case ExpressionResult:
		env.Scores = e.Scores
	case TranscriptResult:
		env.Text = e.Text
	case RecordingCommand:
		env.Timestamp = millis(e.At)
		env.Action = "stop"
		if e.Start {
			env.Action = "start"
		}
	case RecordingChunk:
		env.Data = e.Data
	}

	return json.Marshal(env)
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
