// Package capture implements the camera capture session: a controller
// that sequences asynchronous engine events into listener outcomes, and
// the preview, photo and record sub-handlers it coordinates.
package capture

import "github.com/ayusman/mohini/internal/media"

// previewState tracks the preview sub-session lifecycle.
type previewState int

const (
	previewStateStopped previewState = iota
	previewStateStarting
	previewStateRunning
	previewStatePaused
	previewStateStopping
)

// previewHandler owns the preview sink lifecycle. Paused is a virtual
// state: the engine keeps delivering frames, the controller suppresses
// the buffer copy through IsReadyForSample.
type previewHandler struct {
	state     previewState
	sinkReady bool
}

func newPreviewHandler() *previewHandler {
	return &previewHandler{}
}

// StartPreview configures the preview sink with a format cloned from
// the base capture format and requests frame delivery. Sink setup is
// skipped when a sink from an earlier attempt exists.
func (h *previewHandler) StartPreview(engine media.Engine, base media.MediaType) error {
	previewType := media.BuildPreviewMediaType(base)
	if err := engine.StartPreview(previewType); err != nil {
		return err
	}
	h.sinkReady = true
	h.state = previewStateStarting
	return nil
}

// StopPreview requests a preview stop. Permitted from the starting,
// running and paused states; otherwise nothing is requested.
func (h *previewHandler) StopPreview(engine media.Engine) error {
	switch h.state {
	case previewStateStarting, previewStateRunning, previewStatePaused:
		h.state = previewStateStopping
		return engine.StopPreview()
	}
	return nil
}

// PausePreview marks the preview paused. Valid only while running.
func (h *previewHandler) PausePreview() bool {
	if h.state != previewStateRunning {
		return false
	}
	h.state = previewStatePaused
	return true
}

// ResumePreview marks the preview running again. Valid only while paused.
func (h *previewHandler) ResumePreview() bool {
	if h.state != previewStatePaused {
		return false
	}
	h.state = previewStateRunning
	return true
}

// OnPreviewStarted moves a starting preview to running. Calls from any
// other state are ignored.
func (h *previewHandler) OnPreviewStarted() {
	if h.state == previewStateStarting {
		h.state = previewStateRunning
	}
}

// Initialized reports whether the preview reached a successful start.
func (h *previewHandler) Initialized() bool {
	return h.state == previewStateRunning || h.state == previewStatePaused
}

// IsStarting reports whether the preview is waiting for its first frame.
func (h *previewHandler) IsStarting() bool {
	return h.state == previewStateStarting
}

// IsRunning reports whether frames should currently be presented.
func (h *previewHandler) IsRunning() bool {
	return h.state == previewStateRunning
}

// IsPaused reports whether the preview is paused.
func (h *previewHandler) IsPaused() bool {
	return h.state == previewStatePaused
}
