package api

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
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeController records dispatched events and saves snapshots through a
// real artifact writer.
type fakeController struct {
	mu          sync.Mutex
	events      []interaction.Event
	view        interaction.View
	camera      bool
	hasCamera   bool
	dispatchErr error
	writer      *artifact.Writer
}

func (f *fakeController) View() interaction.View { return f.view }

func (f *fakeController) Dispatch(_ context.Context, ev interaction.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeController) CameraRunning() bool { return f.camera }

func (f *fakeController) StartCamera() error {
	if !f.hasCamera {
		return app.ErrNoCamera
	}
	f.camera = true
	return nil
}

func (f *fakeController) StopCamera() error {
	if !f.hasCamera {
		return app.ErrNoCamera
	}
	f.camera = false
	return nil
}

func (f *fakeController) SaveSnapshot(data []byte, source string) (*store.Artifact, error) {
	if source == "" {
		source = "manual"
	}
	return f.writer.SaveSnapshot(data, source, time.Now())
}

func (f *fakeController) CaptureSnapshot() (*store.Artifact, error) {
	return nil, app.ErrNoFrame
}

func (f *fakeController) dispatched() []interaction.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interaction.Event(nil), f.events...)
}

func setupServer(t *testing.T) (*fakeController, *artifact.Writer, http.Handler) {
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

	ctrl := &fakeController{writer: w, view: interaction.New().View()}
	return ctrl, w, NewServer(ctrl, w, s.Artifacts()).Router()
}

func do(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error
}

func TestGetState(t *testing.T) {
	_, _, h := setupServer(t)

	rec := do(h, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.View.ZoomText != "1.0x" {
		t.Errorf("zoom_text = %q, want 1.0x", got.View.ZoomText)
	}
	if got.Camera {
		t.Error("camera = true, want false")
	}
}

func TestPostTranscript(t *testing.T) {
	ctrl, _, h := setupServer(t)

	t.Run("queues transcript", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/transcripts", []byte(`{"text":"save picture"}`))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
		}
		events := ctrl.dispatched()
		if len(events) != 1 || events[0] != (interaction.TranscriptResult{Text: "save picture"}) {
			t.Errorf("dispatched = %#v", events)
		}
	})

	t.Run("rejects missing text", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/transcripts", []byte(`{}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("app closed", func(t *testing.T) {
		ctrl.dispatchErr = app.ErrClosed
		defer func() { ctrl.dispatchErr = nil }()

		rec := do(h, http.MethodPost, "/api/transcripts", []byte(`{"text":"zoom"}`))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestRecordingCommands(t *testing.T) {
	ctrl, _, h := setupServer(t)

	for _, path := range []string{"/api/recording/start", "/api/recording/stop"} {
		if rec := do(h, http.MethodPost, path, nil); rec.Code != http.StatusAccepted {
			t.Errorf("POST %s status = %d, want %d", path, rec.Code, http.StatusAccepted)
		}
	}

	events := ctrl.dispatched()
	if len(events) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(events))
	}
	if cmd := events[0].(interaction.RecordingCommand); !cmd.Start {
		t.Error("first command should start recording")
	}
	if cmd := events[1].(interaction.RecordingCommand); cmd.Start {
		t.Error("second command should stop recording")
	}
}

func TestCamera(t *testing.T) {
	ctrl, _, h := setupServer(t)

	t.Run("no camera configured", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/camera/start", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
		if msg := errorMessage(t, rec); msg != app.ErrNoCamera.Error() {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("start and stop", func(t *testing.T) {
		ctrl.hasCamera = true

		rec := do(h, http.MethodPost, "/api/camera/start", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"camera":true`) {
			t.Errorf("start: %d %s", rec.Code, rec.Body.String())
		}
		rec = do(h, http.MethodPost, "/api/camera/stop", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"camera":false`) {
			t.Errorf("stop: %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestSnapshots(t *testing.T) {
	_, w, h := setupServer(t)

	t.Run("stores uploaded png", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/snapshots?source=blink", pngBytes(t))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var a store.Artifact
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if a.Kind != store.KindSnapshot || a.Source != "blink" {
			t.Errorf("artifact = %+v", a)
		}
		if !strings.HasPrefix(a.Filename, "snapshot_") || !strings.HasSuffix(a.Filename, ".png") {
			t.Errorf("filename = %q", a.Filename)
		}
		if _, err := os.Stat(w.Path(&a)); err != nil {
			t.Errorf("file missing: %v", err)
		}
	})

	t.Run("rejects non png", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/snapshots", []byte("GIF89a"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("capture without frame", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/snapshots/capture", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})
}

func TestArtifacts(t *testing.T) {
	_, w, h := setupServer(t)

	snap, err := w.SaveSnapshot(pngBytes(t), "voice", time.UnixMilli(1000))
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	rec, err := w.SaveRecording([]byte("webm"), "gesture", time.UnixMilli(2000))
	if err != nil {
		t.Fatalf("SaveRecording() error = %v", err)
	}

	t.Run("list all newest first", func(t *testing.T) {
		res := do(h, http.MethodGet, "/api/artifacts", nil)
		if res.Code != http.StatusOK {
			t.Fatalf("status = %d", res.Code)
		}
		var got artifactListResponse
		if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Total != 2 || got.Artifacts[0].ID != rec.ID {
			t.Errorf("list = %+v", got)
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		res := do(h, http.MethodGet, "/api/artifacts?kind=snapshot", nil)
		var got artifactListResponse
		if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Total != 1 || got.Artifacts[0].ID != snap.ID {
			t.Errorf("list = %+v", got)
		}

		res = do(h, http.MethodGet, "/api/artifacts?kind=gif", nil)
		if res.Code != http.StatusBadRequest {
			t.Errorf("unknown kind status = %d, want %d", res.Code, http.StatusBadRequest)
		}
	})

	t.Run("get metadata and file", func(t *testing.T) {
		res := do(h, http.MethodGet, "/api/artifacts/"+rec.ID, nil)
		if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "recording_2000.webm") {
			t.Errorf("get: %d %s", res.Code, res.Body.String())
		}

		res = do(h, http.MethodGet, "/api/artifacts/"+rec.ID+"/file", nil)
		if res.Code != http.StatusOK {
			t.Fatalf("file status = %d", res.Code)
		}
		if ct := res.Header().Get("Content-Type"); ct != "video/webm" {
			t.Errorf("Content-Type = %q, want video/webm", ct)
		}
		if res.Body.String() != "webm" {
			t.Errorf("body = %q", res.Body.String())
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		res := do(h, http.MethodGet, "/api/artifacts/nope", nil)
		if res.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", res.Code, http.StatusNotFound)
		}
	})

	t.Run("delete", func(t *testing.T) {
		res := do(h, http.MethodDelete, "/api/artifacts/"+snap.ID, nil)
		if res.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", res.Code, http.StatusNoContent)
		}
		if _, err := os.Stat(w.Path(snap)); !os.IsNotExist(err) {
			t.Errorf("file still present: %v", err)
		}
		res = do(h, http.MethodDelete, "/api/artifacts/"+snap.ID, nil)
		if res.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want %d", res.Code, http.StatusNotFound)
		}
	})
}

func TestArtifactsUnavailable(t *testing.T) {
	h := NewServer(&fakeController{}, nil, nil).Router()

	res := do(h, http.MethodGet, "/api/artifacts", nil)
	if res.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", res.Code, http.StatusServiceUnavailable)
	}
}

func TestCORS(t *testing.T) {
	_, _, h := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
