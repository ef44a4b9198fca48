// Package server provides the HTTP surface of the pushcoach service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nevik/pushcoach/internal/filter"
	"github.com/nevik/pushcoach/internal/server/api"
	"github.com/nevik/pushcoach/internal/store"
)

// Config holds the server configuration.
type Config struct {
	// StaticDir serves a web frontend when set.
	StaticDir string
	// Store backs the profile API.
	Store *store.Store
	// Profile is the strictness profile used for frame analysis sessions.
	Profile *store.Profile
	// Filter parameterizes keypoint smoothing on ingested frames.
	Filter filter.Params
}

// Server represents the HTTP server for the pushcoach application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	frames *FramesHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		profileHandler := api.NewProfileHandler(s.config.Store)
		s.mux.Handle("/api/profiles", profileHandler)
		s.mux.Handle("/api/profiles/", profileHandler)
	}

	// Register the frame analysis endpoints if a profile is configured.
	if s.config.Profile != nil {
		s.frames = NewFramesHandler(s.config.Profile, s.config.Filter)
		s.mux.Handle("/api/frames", s.frames)
		s.mux.HandleFunc("/api/session/reset", s.handleSessionReset)
	}

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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleSessionReset handles POST requests to /api/session/reset. It
// signals a reset to every active analysis session; each session applies
// it before the next frame it processes.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n := s.frames.ResetSessions()

	response := map[string]interface{}{
		"status":   "ok",
		"sessions": n,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
