// Package api provides the REST handlers of the overlay service.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/store"
)

// Controller is the part of the app the handlers drive.
type Controller interface {
	View() interaction.View
	Dispatch(ctx context.Context, ev interaction.Event) error
	CameraRunning() bool
	StartCamera() error
	StopCamera() error
	SaveSnapshot(data []byte, source string) (*store.Artifact, error)
	CaptureSnapshot() (*store.Artifact, error)
}

// Server holds the dependencies of the REST handlers.
type Server struct {
	ctrl      Controller
	artifacts *artifact.Writer
	repo      *store.ArtifactRepository
	// dispatchTimeout bounds how long a request waits on a full event queue.
	dispatchTimeout time.Duration
}

// NewServer creates a Server. w and repo may be nil when artifacts are not
// stored, in which case the artifact routes answer 503.
func NewServer(ctrl Controller, w *artifact.Writer, repo *store.ArtifactRepository) *Server {
	return &Server{
		ctrl:            ctrl,
		artifacts:       w,
		repo:            repo,
		dispatchTimeout: 2 * time.Second,
	}
}

// Router builds the gin engine with every route registered under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))
	s.SetupRoutes(r)
	return r
}

// SetupRoutes registers the API routes on r.
func (s *Server) SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/state", s.handleGetState)
		api.POST("/transcripts", s.handlePostTranscript)

		recording := api.Group("/recording")
		{
			recording.POST("/start", s.handleRecording(true))
			recording.POST("/stop", s.handleRecording(false))
		}

		camera := api.Group("/camera")
		{
			camera.POST("/start", s.handleStartCamera)
			camera.POST("/stop", s.handleStopCamera)
		}

		snapshots := api.Group("/snapshots")
		{
			snapshots.POST("", s.handleUploadSnapshot)
			snapshots.POST("/capture", s.handleCaptureSnapshot)
		}

		artifacts := api.Group("/artifacts")
		{
			artifacts.GET("", s.handleListArtifacts)
			artifacts.GET("/:id", s.handleGetArtifact)
			artifacts.GET("/:id/file", s.handleGetArtifactFile)
			artifacts.DELETE("/:id", s.handleDeleteArtifact)
		}
	}
}
