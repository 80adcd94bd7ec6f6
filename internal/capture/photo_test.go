package capture

import (
	"errors"
	"testing"

	"github.com/ayusman/mohini/internal/media"
)

func TestPhotoHandler_TakePhoto(t *testing.T) {
	engine := media.NewMockEngine()
	h := newPhotoHandler()

	if err := h.TakePhoto("/tmp/shot.jpg", engine, media.MediaType{Width: 1920, Height: 1080}); err != nil {
		t.Fatalf("TakePhoto failed: %v", err)
	}

	if !h.IsTakingPhoto() {
		t.Error("handler should report an in-flight capture")
	}
	if h.Path() != "/tmp/shot.jpg" {
		t.Errorf("Path() = %q, want %q", h.Path(), "/tmp/shot.jpg")
	}
	if engine.LastPhotoPath != "/tmp/shot.jpg" {
		t.Errorf("engine got path %q, want %q", engine.LastPhotoPath, "/tmp/shot.jpg")
	}

	// A second request while one is in flight is rejected
	if err := h.TakePhoto("/tmp/other.jpg", engine, media.MediaType{}); err == nil {
		t.Error("expected second TakePhoto to fail while one is in flight")
	}

	h.OnPhotoTaken()
	if h.IsTakingPhoto() {
		t.Error("handler should be idle after the capture completes")
	}

	// The handler is reusable after completion
	if err := h.TakePhoto("/tmp/next.jpg", engine, media.MediaType{}); err != nil {
		t.Errorf("TakePhoto after completion failed: %v", err)
	}
}

func TestPhotoHandler_EngineFailure(t *testing.T) {
	engine := media.NewMockEngine()
	engine.TakePhotoErr = errors.New("sink unavailable")
	h := newPhotoHandler()

	if err := h.TakePhoto("/tmp/shot.jpg", engine, media.MediaType{}); err == nil {
		t.Fatal("expected TakePhoto to fail")
	}
	if h.IsTakingPhoto() {
		t.Error("failed request should leave the handler idle")
	}
}
