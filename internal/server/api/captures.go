// Package api provides HTTP API handlers for the Mohini capture daemon.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mohini/internal/store"
)

// CapturesHandler handles HTTP requests for the capture index.
type CapturesHandler struct {
	store *store.Store
}

// NewCapturesHandler creates a new CapturesHandler with the given store.
func NewCapturesHandler(s *store.Store) *CapturesHandler {
	return &CapturesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *CapturesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/captures or /api/captures/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/captures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/captures
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	// Item endpoint: /api/captures/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response types

type captureResponse struct {
	ID         string `json:"id"`
	CameraID   int64  `json:"camera_id"`
	Kind       string `json:"kind"`
	Path       string `json:"path"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

type listCapturesResponse struct {
	Captures []captureResponse `json:"captures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Capture to a captureResponse.
func toResponse(c *store.Capture) captureResponse {
	return captureResponse{
		ID:         c.ID,
		CameraID:   c.CameraID,
		Kind:       string(c.Kind),
		Path:       c.Path,
		DurationMS: c.DurationMS,
		CreatedAt:  c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/captures and returns all indexed captures. The
// kind query parameter optionally filters by photo or video.
func (h *CapturesHandler) list(w http.ResponseWriter, r *http.Request) {
	var captures []*store.Capture
	var err error

	switch kind := r.URL.Query().Get("kind"); kind {
	case "":
		captures, err = h.store.Captures().List()
	case string(store.KindPhoto), string(store.KindVideo):
		captures, err = h.store.Captures().ListByKind(store.CaptureKind(kind))
	default:
		writeError(w, http.StatusBadRequest, "Invalid capture kind")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}

	response := listCapturesResponse{
		Captures: make([]captureResponse, 0, len(captures)),
	}

	for _, c := range captures {
		response.Captures = append(response.Captures, toResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/captures/{id} and returns a single capture.
func (h *CapturesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	capture, err := h.store.Captures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Capture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get capture")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(capture))
}

// delete handles DELETE /api/captures/{id} and removes a capture from
// the index. The media file itself is left on disk.
func (h *CapturesHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Captures().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Capture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete capture")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
