// Package server provides the HTTP server for the Mohini capture daemon.
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mohini/internal/media"
)

// StreamHandler serves MJPEG preview frames pulled from a registered
// texture.
type StreamHandler struct {
	registry *media.TextureRegistry
}

// NewStreamHandler creates a new StreamHandler over the given registry.
func NewStreamHandler(registry *media.TextureRegistry) *StreamHandler {
	return &StreamHandler{registry: registry}
}

// ServeHTTP streams MJPEG frames to connected clients. The cameraId
// query parameter selects the texture to stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	textureID, err := strconv.ParseInt(r.URL.Query().Get("cameraId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cameraId", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame := h.registry.Acquire(textureID)
		if frame == nil || len(frame.Pixels) == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		buf, err := encodeJPEG(frame)
		if err != nil {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(66 * time.Millisecond) // ~15 FPS
	}
}

// encodeJPEG converts one RGBA presentation frame to a JPEG buffer.
func encodeJPEG(frame *media.PixelBuffer) (*gocv.NativeByteBuffer, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC4, frame.Pixels)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)

	return gocv.IMEncode(".jpg", bgr)
}
