// Package server provides the HTTP server for the Abhinaya overlay.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/metrics"
	"github.com/ayusman/abhinaya/internal/server/api"
	"github.com/ayusman/abhinaya/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	Store     *store.Store
	Artifacts *artifact.Writer
	Metrics   *metrics.Metrics
}

// Server represents the HTTP server for the Abhinaya application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *EventsHandler
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Metrics == nil && config.App != nil {
		config.Metrics = config.App.Metrics()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.http = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.App != nil {
		s.events = NewEventsHandler(s.config.App, s.config.Metrics)
		s.mux.Handle("/api/events", s.events)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))

		var repo *store.ArtifactRepository
		if s.config.Store != nil {
			repo = s.config.Store.Artifacts()
		}
		s.mux.Handle("/api/", api.NewServer(s.config.App, s.config.Artifacts, repo).Router())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["camera"] = s.config.App.CameraRunning()
	}
	if s.events != nil {
		response["clients"] = s.events.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("Server", "Listening on %s", ln.Addr())
	err = s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects WebSocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.events != nil {
		s.events.Close()
	}
	return s.http.Shutdown(ctx)
}
