package detector

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ayusman/abhinaya/internal/landmark"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxHands != 2 {
		t.Errorf("MaxHands = %d, want 2", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.7 || cfg.MinTrackingConf != 0.7 {
		t.Errorf("confidence thresholds = %v/%v, want 0.7/0.7", cfg.MinConfidence, cfg.MinTrackingConf)
	}
	if !cfg.Face || !cfg.Expressions {
		t.Error("face and expression tracking should be on by default")
	}
}

func TestMediaPipeDetector_Args(t *testing.T) {
	d := &MediaPipeDetector{config: DefaultConfig(), scriptPath: "/opt/mediapipe_service.py"}
	got := strings.Join(d.args(), " ")

	want := "/opt/mediapipe_service.py --max-hands 2 --min-detection 0.7 --min-tracking 0.7 --face --expressions"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}

	d.config.Face = false
	d.config.Expressions = false
	if strings.Contains(strings.Join(d.args(), " "), "--face") {
		t.Error("--face should be omitted when face tracking is off")
	}
}

func response(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return append(b, '\n')
}

func TestParseResponse(t *testing.T) {
	victory := landmark.VictoryLandmarks()
	face := landmark.FaceWithEAR(0.3)

	line := response(t, map[string]any{
		"hands": []map[string]any{
			{"points": victory.Points[:], "handedness": "Right", "score": 0.95},
			{"points": victory.Points[:5], "handedness": "Left", "score": 0.9},
		},
		"face":        map[string]any{"points": face.Points},
		"expressions": map[string]float64{"happy": 0.7, "neutral": 0.3},
	})

	r, err := parseResponse(line)
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}

	if len(r.Hands) != 1 {
		t.Fatalf("expected truncated hand to be dropped, got %d hands", len(r.Hands))
	}
	if r.Hands[0].Points != victory.Points {
		t.Error("hand points not preserved in model order")
	}
	if r.Face == nil || len(r.Face.Points) != landmark.NumFaceLandmarks {
		t.Error("face mesh not preserved")
	}
	if r.Expressions["happy"] != 0.7 {
		t.Errorf("expressions = %v", r.Expressions)
	}
}

func TestParseResponse_Empty(t *testing.T) {
	r, err := parseResponse([]byte(`{"hands":[]}` + "\n"))
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if r.Hands == nil || len(r.Hands) != 0 {
		t.Errorf("expected empty non-nil hands, got %v", r.Hands)
	}
	if r.Face != nil {
		t.Error("expected no face")
	}
}

func TestParseResponse_ShortFace(t *testing.T) {
	r, err := parseResponse(response(t, map[string]any{
		"face": map[string]any{"points": make([]landmark.Point3D, 12)},
	}))
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if r.Face != nil {
		t.Error("short face mesh should be reported as no face")
	}
}

func TestParseResponse_Errors(t *testing.T) {
	if _, err := parseResponse([]byte("not json\n")); err == nil {
		t.Error("expected error for malformed line")
	}

	_, err := parseResponse([]byte(`{"error":"model not loaded"}` + "\n"))
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	r, err := m.Detect(nil)
	if err != nil || len(r.Hands) != 0 {
		t.Fatalf("default mock should find nothing, got %v, %v", r, err)
	}

	first := &Result{Hands: []landmark.HandLandmarks{landmark.VictoryLandmarks()}}
	m.Enqueue(first)
	m.SetHands([]landmark.HandLandmarks{landmark.OpenPalmLandmarks(), landmark.OpenPalmLandmarks()})

	if r, _ := m.Detect(nil); r != first {
		t.Error("queued result should be returned first")
	}
	for i := 0; i < 2; i++ {
		if r, _ := m.Detect(nil); len(r.Hands) != 2 {
			t.Errorf("fallback call %d: got %d hands, want 2", i, len(r.Hands))
		}
	}

	boom := errors.New("boom")
	m.SetError(boom)
	if _, err := m.Detect(nil); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}

	if m.Calls() != 5 {
		t.Errorf("Calls() = %d, want 5", m.Calls())
	}
}

func TestNewMediaPipeDetector_ScriptMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := NewMediaPipeDetector(DefaultConfig(), t.TempDir())
	if !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("expected ErrScriptNotFound, got %v", err)
	}
}
