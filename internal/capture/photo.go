package capture

import (
	"errors"

	"github.com/ayusman/mohini/internal/media"
)

// photoHandler owns one still-capture request at a time. The target
// path is retained for the success callback.
type photoHandler struct {
	capturing bool
	path      string
}

func newPhotoHandler() *photoHandler {
	return &photoHandler{}
}

// TakePhoto requests a still capture to path using the base capture
// format.
func (h *photoHandler) TakePhoto(path string, engine media.Engine, base media.MediaType) error {
	if h.capturing {
		return errors.New("photo already requested")
	}

	if err := engine.TakePhoto(path, base); err != nil {
		return err
	}

	h.path = path
	h.capturing = true
	return nil
}

// IsTakingPhoto reports whether a capture request is in flight.
func (h *photoHandler) IsTakingPhoto() bool {
	return h.capturing
}

// OnPhotoTaken ends the in-flight request.
func (h *photoHandler) OnPhotoTaken() {
	h.capturing = false
}

// Path returns the target path of the last capture request.
func (h *photoHandler) Path() string {
	return h.path
}
