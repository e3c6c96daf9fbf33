package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/store"
)

// maxSnapshotBytes caps uploaded snapshot bodies.
const maxSnapshotBytes = 32 << 20

type stateResponse struct {
	View   interaction.View `json:"view"`
	Camera bool             `json:"camera"`
}

type transcriptRequest struct {
	Text string `json:"text" binding:"required"`
}

type artifactListResponse struct {
	Artifacts []*store.Artifact `json:"artifacts"`
	Total     int               `json:"total"`
}

func (s *Server) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, stateResponse{View: s.ctrl.View(), Camera: s.ctrl.CameraRunning()})
}

func (s *Server) handlePostTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid transcript: "+err.Error())
		return
	}
	if !s.dispatch(c, interaction.TranscriptResult{Text: req.Text}) {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) handleRecording(start bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.dispatch(c, interaction.RecordingCommand{Start: start, At: time.Now()}) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

func (s *Server) handleStartCamera(c *gin.Context) {
	if err := s.ctrl.StartCamera(); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": s.ctrl.CameraRunning()})
}

func (s *Server) handleStopCamera(c *gin.Context) {
	if err := s.ctrl.StopCamera(); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": s.ctrl.CameraRunning()})
}

func (s *Server) handleUploadSnapshot(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSnapshotBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "snapshot too large")
			return
		}
		writeError(c, http.StatusBadRequest, "read snapshot: "+err.Error())
		return
	}

	a, err := s.ctrl.SaveSnapshot(data, c.Query("source"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) handleCaptureSnapshot(c *gin.Context) {
	a, err := s.ctrl.CaptureSnapshot()
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) handleListArtifacts(c *gin.Context) {
	if !s.hasArtifacts(c) {
		return
	}

	kind := store.ArtifactKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		writeError(c, http.StatusBadRequest, "unknown artifact kind: "+string(kind))
		return
	}

	list, err := s.repo.List(kind)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifactListResponse{Artifacts: list, Total: len(list)})
}

func (s *Server) handleGetArtifact(c *gin.Context) {
	if !s.hasArtifacts(c) {
		return
	}
	a, err := s.repo.GetByID(c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleGetArtifactFile(c *gin.Context) {
	if !s.hasArtifacts(c) {
		return
	}
	a, err := s.repo.GetByID(c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}

	c.Header("Content-Type", contentType(a.Kind))
	c.FileAttachment(s.artifacts.Path(a), a.Filename)
}

func (s *Server) handleDeleteArtifact(c *gin.Context) {
	if !s.hasArtifacts(c) {
		return
	}
	if err := s.artifacts.Delete(c.Param("id")); err != nil {
		writeAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// dispatch posts ev to the app and writes the error response if that
// fails. It reports whether the event was queued.
func (s *Server) dispatch(c *gin.Context, ev interaction.Event) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.dispatchTimeout)
	defer cancel()

	if err := s.ctrl.Dispatch(ctx, ev); err != nil {
		writeAppError(c, err)
		return false
	}
	return true
}

func (s *Server) hasArtifacts(c *gin.Context) bool {
	if s.repo == nil || s.artifacts == nil {
		writeAppError(c, app.ErrNoArtifacts)
		return false
	}
	return true
}

func contentType(kind store.ArtifactKind) string {
	if kind == store.KindRecording {
		return "video/webm"
	}
	return "image/png"
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeAppError maps known errors to a status code.
func writeAppError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, artifact.ErrNotPNG):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrNoCamera), errors.Is(err, app.ErrNoFrame):
		status = http.StatusConflict
	case errors.Is(err, app.ErrClosed), errors.Is(err, app.ErrNotStarted), errors.Is(err, app.ErrNoArtifacts):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		c.Error(err)
	}
	writeError(c, status, err.Error())
}
