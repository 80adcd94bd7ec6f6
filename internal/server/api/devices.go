package api

import (
	"net/http"

	"github.com/ayusman/mohini/internal/media"
)

// DevicesHandler handles HTTP requests for capture device enumeration.
type DevicesHandler struct{}

// NewDevicesHandler creates a new DevicesHandler.
func NewDevicesHandler() *DevicesHandler {
	return &DevicesHandler{}
}

type listDevicesResponse struct {
	Devices []media.Device `json:"devices"`
}

// ServeHTTP handles GET requests to /api/devices.
func (h *DevicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	devices := media.EnumerateDevices()
	if devices == nil {
		devices = []media.Device{}
	}

	writeJSON(w, http.StatusOK, listDevicesResponse{Devices: devices})
}
