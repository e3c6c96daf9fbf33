package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/abhinaya/internal/hook"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/overlay"
	"github.com/ayusman/abhinaya/internal/store"
)

var (
	// ErrNoArtifacts is returned when the app was built without an artifact writer.
	ErrNoArtifacts = errors.New("artifact storage is not configured")
	// ErrNoFrame is returned when a server-side snapshot is requested but the
	// camera has not produced a frame.
	ErrNoFrame = errors.New("no camera frame available")
)

// execute carries out one effect on the loop goroutine.
func (a *App) execute(e interaction.Effect) {
	a.metrics.ObserveEffect(string(e.Kind), string(e.Source))
	if e.At.IsZero() {
		e.At = time.Now()
	}

	switch e.Kind {
	case interaction.EffectStartCamera:
		if err := a.StartCamera(); err != nil {
			logger.Warn("App", "Voice start camera: %v", err)
		}
		a.publish(Notification{Kind: NotifyEffect, Effect: e})

	case interaction.EffectSnapshot:
		saved := a.snapshotFromCamera(e)
		a.publish(Notification{Kind: NotifyEffect, Effect: e, Handled: saved})

	case interaction.EffectStartRecording:
		logger.Info("App", "Recording started (%s)", e.Source)
		a.metrics.RecordingBytes.Store(0)
		a.publish(Notification{Kind: NotifyEffect, Effect: e})

	case interaction.EffectRecordingFinished:
		logger.Info("App", "Recording finished: %d bytes", len(e.Data))
		a.publish(Notification{Kind: NotifyEffect, Effect: e})
		if a.config.Artifacts == nil {
			return
		}
		art, err := a.config.Artifacts.SaveRecording(e.Data, string(e.Source), e.At)
		if err != nil {
			logger.Error("App", "Save recording: %v", err)
			return
		}
		a.artifactSaved(art)
	}
}

// snapshotFromCamera renders and saves the overlay when the server camera
// has a frame. It returns false when a client has to supply the image.
func (a *App) snapshotFromCamera(e interaction.Effect) bool {
	if a.config.Artifacts == nil {
		return false
	}
	img, ok := a.RenderOverlay()
	if !ok {
		return false
	}

	data, err := overlay.EncodePNG(img)
	if err != nil {
		logger.Error("App", "Encode snapshot: %v", err)
		return false
	}
	art, err := a.config.Artifacts.SaveSnapshot(data, string(e.Source), e.At)
	if err != nil {
		logger.Error("App", "Save snapshot: %v", err)
		return false
	}

	logger.Info("App", "Snapshot saved: %s (%s)", art.Filename, e.Source)
	a.artifactSaved(art)
	return true
}

// SaveSnapshot stores a PNG uploaded by a client in answer to a snapshot effect.
func (a *App) SaveSnapshot(data []byte, source string) (*store.Artifact, error) {
	if a.config.Artifacts == nil {
		return nil, ErrNoArtifacts
	}
	if source == "" {
		source = string(interaction.SourceManual)
	}
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	art, err := a.config.Artifacts.SaveSnapshot(data, source, time.Now())
	if err != nil {
		return nil, err
	}
	a.artifactSaved(art)
	return art, nil
}

// CaptureSnapshot renders the overlay over the latest camera frame and
// saves it as a manual snapshot.
func (a *App) CaptureSnapshot() (*store.Artifact, error) {
	if a.config.Artifacts == nil {
		return nil, ErrNoArtifacts
	}
	img, ok := a.RenderOverlay()
	if !ok {
		return nil, ErrNoFrame
	}
	data, err := overlay.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return a.SaveSnapshot(data, string(interaction.SourceManual))
}

// artifactSaved announces a new artifact and starts the hooks that want it.
func (a *App) artifactSaved(art *store.Artifact) {
	a.publish(Notification{Kind: NotifyArtifact, Artifact: art})

	if a.config.Hooks == nil || a.config.Artifacts == nil {
		return
	}
	req := &hook.Request{
		Event:    hook.EventArtifactSaved,
		Artifact: art,
		Path:     a.config.Artifacts.Path(art),
	}
	matching := a.config.Hooks.Matching(art.Kind)
	if len(matching) == 0 {
		return
	}

	// Close stops accepting hook runs before it waits for them.
	a.mu.Lock()
	if a.hooksClosed {
		a.mu.Unlock()
		logger.Debug("App", "Skipping hooks for %s: closing", art.Filename)
		return
	}
	a.hooks.Add(len(matching))
	a.mu.Unlock()

	for _, h := range matching {
		go func() {
			defer a.hooks.Done()
			resp, err := a.hookRunner.Run(context.Background(), h, req)
			switch {
			case err != nil:
				logger.Warn("App", "Hook %s: %v", h.Manifest.Name, err)
			case !resp.Success:
				logger.Warn("App", "Hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			default:
				logger.Debug("App", "Hook %s done for %s", h.Manifest.Name, art.Filename)
			}
		}()
	}
}
