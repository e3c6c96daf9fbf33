package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/landmark"
	"github.com/ayusman/abhinaya/internal/store"
)

type testEnv struct {
	ts        *httptest.Server
	app       *app.App
	artifacts *artifact.Writer
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	w, err := artifact.NewWriter(t.TempDir(), s.Artifacts())
	if err != nil {
		t.Fatalf("artifact.NewWriter() error = %v", err)
	}

	a := app.New(app.Config{Artifacts: w, CameraID: -1, DataDir: t.TempDir()})
	a.SetDetector(detector.NewMockDetector())
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	srv := New(Config{App: a, Store: s, Artifacts: w})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
		a.Close()
	})

	return &testEnv{ts: ts, app: a, artifacts: w}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads messages until one of the given type arrives.
func next(t *testing.T, conn *websocket.Conn, msgType string) outMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", msgType, err)
		}
		var m outMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if m.Type == msgType {
			return m
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, ev interaction.Event) {
	t.Helper()
	data, err := interaction.EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestEvents_HelloAndView(t *testing.T) {
	env := setupEnv(t)
	conn := env.dial(t)

	hello := next(t, conn, MsgHello)
	if hello.ClientID == "" {
		t.Error("hello without client id")
	}
	if hello.View == nil || hello.View.ZoomText != "1.0x" {
		t.Errorf("hello view = %+v", hello.View)
	}
	if hello.Camera == nil || *hello.Camera {
		t.Errorf("hello camera = %v, want false", hello.Camera)
	}

	a, b := landmark.OpenPalmLandmarks(), landmark.OpenPalmLandmarks()
	a.Points[landmark.Wrist] = landmark.Point3D{X: 0.1, Y: 0.5}
	b.Points[landmark.Wrist] = landmark.Point3D{X: 0.1 + 450.0/640, Y: 0.5}
	send(t, conn, interaction.HandFrameResult{Hands: []landmark.HandLandmarks{a, b}, Width: 640, Height: 480})

	view := next(t, conn, MsgView)
	if view.View.ZoomText != "3.0x" {
		t.Errorf("zoom_text = %q, want 3.0x", view.View.ZoomText)
	}
	if view.View.Hands != 2 {
		t.Errorf("hands = %d, want 2", view.View.Hands)
	}
}

func TestEvents_RejectsBadEnvelope(t *testing.T) {
	env := setupEnv(t)
	conn := env.dial(t)
	next(t, conn, MsgHello)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := next(t, conn, MsgError)
	if !strings.Contains(msg.Error, "unknown event type") {
		t.Errorf("error = %q", msg.Error)
	}
	if got := env.app.Metrics().EventsRejected.Load(); got != 1 {
		t.Errorf("EventsRejected = %d, want 1", got)
	}
}

func TestEvents_SnapshotRoundTrip(t *testing.T) {
	env := setupEnv(t)
	conn := env.dial(t)
	next(t, conn, MsgHello)

	send(t, conn, interaction.TranscriptResult{Text: "Save Picture please"})

	effect := next(t, conn, MsgEffect)
	if effect.Effect != interaction.EffectSnapshot || effect.Source != interaction.SourceVoice {
		t.Fatalf("effect = %+v", effect)
	}
	if effect.Handled {
		t.Fatal("no server camera, the client must upload")
	}

	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	resp, err := http.Post(env.ts.URL+"/api/snapshots?source=voice", "image/png", &buf)
	if err != nil {
		t.Fatalf("POST /api/snapshots: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/snapshots status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	saved := next(t, conn, MsgArtifact)
	if saved.Artifact.Kind != store.KindSnapshot || saved.Artifact.Source != "voice" {
		t.Errorf("artifact = %+v", saved.Artifact)
	}
}

func TestEvents_RecordingChunks(t *testing.T) {
	env := setupEnv(t)
	conn := env.dial(t)
	next(t, conn, MsgHello)

	send(t, conn, interaction.RecordingCommand{Start: true, At: time.Now()})
	if effect := next(t, conn, MsgEffect); effect.Effect != interaction.EffectStartRecording {
		t.Fatalf("effect = %+v", effect)
	}

	for _, chunk := range []string{"chunk-1|", "chunk-2"} {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte(chunk)); err != nil {
			t.Fatalf("write chunk: %v", err)
		}
	}
	send(t, conn, interaction.RecordingCommand{Start: false, At: time.Now()})

	saved := next(t, conn, MsgArtifact)
	if saved.Artifact.Kind != store.KindRecording {
		t.Fatalf("artifact = %+v", saved.Artifact)
	}
	data, err := os.ReadFile(env.artifacts.Path(saved.Artifact))
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if string(data) != "chunk-1|chunk-2" {
		t.Errorf("recording = %q", data)
	}

	resp, err := http.Get(env.ts.URL + "/api/artifacts?kind=recording")
	if err != nil {
		t.Fatalf("GET /api/artifacts: %v", err)
	}
	defer resp.Body.Close()
	var listed struct {
		Total int `json:"total"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	if listed.Total != 1 {
		t.Errorf("listed %d recordings, want 1", listed.Total)
	}
}

func TestEvents_ClientCount(t *testing.T) {
	env := setupEnv(t)
	conn := env.dial(t)
	next(t, conn, MsgHello)

	resp, err := http.Get(env.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	var health map[string]any
	json.NewDecoder(resp.Body).Decode(&health)
	if health["clients"] != float64(1) {
		t.Errorf("clients = %v, want 1", health["clients"])
	}
	if got := env.app.Metrics().ActiveClients.Load(); got != 1 {
		t.Errorf("ActiveClients = %d, want 1", got)
	}
}
