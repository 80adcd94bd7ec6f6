// Package server provides the HTTP server for the Mohini capture daemon.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mohini/internal/media"
	"github.com/ayusman/mohini/internal/server/api"
	"github.com/ayusman/mohini/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Registry  *media.TextureRegistry
	Pipeline  media.Pipeline
	MediaDir  string
}

// Server represents the HTTP server for the Mohini application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	channel *ChannelHandler
	start   time.Time
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
	s.mux.Handle("/api/devices", api.NewDevicesHandler())

	// Register capture index API handler if Store is configured
	if s.config.Store != nil {
		capturesHandler := api.NewCapturesHandler(s.config.Store)
		s.mux.Handle("/api/captures", capturesHandler)
		s.mux.Handle("/api/captures/", capturesHandler)
	}

	// Register the camera method channel if Pipeline and Registry are
	// configured
	if s.config.Pipeline != nil && s.config.Registry != nil {
		s.channel = NewChannelHandler(s.config.Pipeline, s.config.Registry, s.config.MediaDir)
		if s.config.Store != nil {
			s.channel.SetCaptureIndex(s.config.Store.Captures())
		}
		s.mux.Handle("/api/channel", s.channel)
	}

	// Register preview stream endpoint if Registry is configured
	if s.config.Registry != nil {
		streamHandler := NewStreamHandler(s.config.Registry)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Channel returns the camera method channel handler, or nil when the
// server was built without a pipeline.
func (s *Server) Channel() *ChannelHandler {
	return s.channel
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

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
