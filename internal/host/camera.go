package host

import (
	"log"
	"sync"

	"github.com/ayusman/mohini/internal/capture"
	"github.com/ayusman/mohini/internal/media"
	"github.com/ayusman/mohini/internal/store"
)

// Event names pushed to the host bridge without an associated pending
// result.
const (
	// VideoRecordedEvent announces a completed timed recording.
	VideoRecordedEvent = "video_recorded"
	// ErrorEvent announces a pipeline-level capture error.
	ErrorEvent = "error"
)

// Messenger pushes asynchronous events to the host bridge.
type Messenger interface {
	InvokeMethod(cameraID int64, method string, arguments map[string]any)
}

// CaptureController is the capture session surface the camera drives.
// Production cameras use capture.Controller; tests substitute it.
type CaptureController interface {
	InitCaptureDevice(registrar capture.TextureRegistrar, deviceID string, recordAudio bool, preset media.ResolutionPreset)
	StartPreview()
	StopPreview()
	PausePreview()
	ResumePreview()
	TakePicture(path string)
	StartRecord(path string, maxVideoDurationMS int64)
	StopRecord()
	Dispose()
}

// ControllerFactory constructs the capture controller for a camera,
// reporting to the given listener.
type ControllerFactory func(listener capture.ControllerListener) CaptureController

// DefaultControllerFactory builds production controllers over the given
// pipeline.
func DefaultControllerFactory(pipeline media.Pipeline) ControllerFactory {
	return func(listener capture.ControllerListener) CaptureController {
		return capture.NewController(pipeline, listener)
	}
}

// Camera owns one capture session and its pending-result table. It
// implements capture.ControllerListener: every listener callback
// consumes the pending result of the matching operation kind, and
// callbacks with no pending result are no-ops so spurious or duplicate
// events are harmless.
type Camera struct {
	mu       sync.Mutex
	deviceID string
	cameraID int64

	messenger  Messenger
	controller CaptureController
	pending    map[PendingResultType]Result

	// Optional capture index; completed photos and recordings are
	// recorded there.
	captures *store.CaptureRepository
}

// NewCamera creates a camera for the given capture device.
func NewCamera(deviceID string) *Camera {
	return &Camera{
		deviceID: deviceID,
		cameraID: -1,
		pending:  make(map[PendingResultType]Result, pendingResultTypeCount),
	}
}

// SetCaptureIndex attaches the capture index repository.
func (c *Camera) SetCaptureIndex(captures *store.CaptureRepository) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures = captures
}

// DeviceID returns the capture device this camera was created for.
func (c *Camera) DeviceID() string {
	return c.deviceID
}

// CameraID returns the session id assigned on successful creation
// (the presentation texture id), or -1.
func (c *Camera) CameraID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraID
}

// InitCamera constructs the capture controller through the factory and
// begins device initialization. The outcome resolves the pending
// create result.
func (c *Camera) InitCamera(factory ControllerFactory, registrar capture.TextureRegistrar, messenger Messenger, enableAudio bool, preset media.ResolutionPreset) {
	c.mu.Lock()
	c.messenger = messenger
	c.controller = factory(c)
	controller := c.controller
	c.mu.Unlock()

	controller.InitCaptureDevice(registrar, c.deviceID, enableAudio, preset)
}

// AddPendingResult stores the result for an operation kind. A second
// request of the same kind while one is pending is rejected immediately
// without disturbing the first.
func (c *Camera) AddPendingResult(kind PendingResultType, result Result) bool {
	c.mu.Lock()
	if _, exists := c.pending[kind]; exists {
		c.mu.Unlock()
		result.Error("Duplicate request", "Method handler already called")
		return false
	}
	c.pending[kind] = result
	c.mu.Unlock()
	return true
}

// HasPendingResult reports whether a request of the given kind is
// outstanding.
func (c *Camera) HasPendingResult(kind PendingResultType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.pending[kind]
	return exists
}

// takePendingResult removes and returns the pending result for a kind,
// or nil. Removal before resolution guarantees exactly-once semantics.
func (c *Camera) takePendingResult(kind PendingResultType) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, exists := c.pending[kind]
	if !exists {
		return nil
	}
	delete(c.pending, kind)
	return result
}

// sendErrorForPendingResults fails every outstanding request with the
// given error and empties the table.
func (c *Camera) sendErrorForPendingResults(code, message string) {
	c.mu.Lock()
	taken := make([]Result, 0, len(c.pending))
	for kind, result := range c.pending {
		taken = append(taken, result)
		delete(c.pending, kind)
	}
	c.mu.Unlock()

	for _, result := range taken {
		result.Error(code, message)
	}
}

// Dispose releases the capture session and force-fails every pending
// result with a fixed disposal error.
func (c *Camera) Dispose() {
	c.mu.Lock()
	controller := c.controller
	c.controller = nil
	c.mu.Unlock()

	if controller != nil {
		controller.Dispose()
	}

	c.sendErrorForPendingResults("plugin_disposed", "Plugin disposed before request was handled")
}

// controllerOr resolves the attached controller, failing the result
// when the camera was never created.
func (c *Camera) controllerOr(result Result) CaptureController {
	c.mu.Lock()
	controller := c.controller
	c.mu.Unlock()

	if controller == nil {
		result.Error("camera_error", "Camera not created")
		return nil
	}
	return controller
}

// Initialize starts the preview feed; the result resolves with the
// preview dimensions once the first frame arrives.
func (c *Camera) Initialize(result Result) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypeInitialize, result) {
		return
	}
	controller.StartPreview()
}

// PausePreview suspends preview frame delivery.
func (c *Camera) PausePreview(result Result) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypePausePreview, result) {
		return
	}
	controller.PausePreview()
}

// ResumePreview resumes preview frame delivery.
func (c *Camera) ResumePreview(result Result) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypeResumePreview, result) {
		return
	}
	controller.ResumePreview()
}

// TakePicture captures a still photo to path; the result resolves with
// the file path.
func (c *Camera) TakePicture(result Result, path string) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypeTakePicture, result) {
		return
	}
	controller.TakePicture(path)
}

// StartVideoRecording begins a recording to path. A positive
// maxVideoDurationMS produces a timed recording that stops itself and
// pushes a video-recorded event on completion.
func (c *Camera) StartVideoRecording(result Result, path string, maxVideoDurationMS int64) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypeStartRecord, result) {
		return
	}
	controller.StartRecord(path, maxVideoDurationMS)
}

// StopVideoRecording stops the active recording; the result resolves
// with the recorded file path.
func (c *Camera) StopVideoRecording(result Result) {
	controller := c.controllerOr(result)
	if controller == nil {
		return
	}
	if !c.AddPendingResult(ResultTypeStopRecord, result) {
		return
	}
	controller.StopRecord()
}

// indexCapture records a completed capture in the capture index.
func (c *Camera) indexCapture(kind store.CaptureKind, path string, durationMS int64) {
	c.mu.Lock()
	captures := c.captures
	cameraID := c.cameraID
	c.mu.Unlock()

	if captures == nil {
		return
	}

	err := captures.Create(&store.Capture{
		CameraID:   cameraID,
		Kind:       kind,
		Path:       path,
		DurationMS: durationMS,
	})
	if err != nil {
		log.Printf("failed to index %s capture %s: %v", kind, path, err)
	}
}

// OnCreateCaptureEngineSucceeded implements capture.ControllerListener.
// The texture id doubles as the camera id.
func (c *Camera) OnCreateCaptureEngineSucceeded(textureID int64) {
	c.mu.Lock()
	c.cameraID = textureID
	c.mu.Unlock()

	if result := c.takePendingResult(ResultTypeCreateCamera); result != nil {
		result.Success(map[string]any{"cameraId": textureID})
	}
}

// OnCreateCaptureEngineFailed implements capture.ControllerListener.
func (c *Camera) OnCreateCaptureEngineFailed(reason string) {
	if result := c.takePendingResult(ResultTypeCreateCamera); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnStartPreviewSucceeded implements capture.ControllerListener.
func (c *Camera) OnStartPreviewSucceeded(width, height int32) {
	if result := c.takePendingResult(ResultTypeInitialize); result != nil {
		result.Success(map[string]any{
			"previewWidth":  float64(width),
			"previewHeight": float64(height),
		})
	}
}

// OnStartPreviewFailed implements capture.ControllerListener.
func (c *Camera) OnStartPreviewFailed(reason string) {
	if result := c.takePendingResult(ResultTypeInitialize); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnPausePreviewSucceeded implements capture.ControllerListener.
func (c *Camera) OnPausePreviewSucceeded() {
	if result := c.takePendingResult(ResultTypePausePreview); result != nil {
		result.Success(nil)
	}
}

// OnPausePreviewFailed implements capture.ControllerListener.
func (c *Camera) OnPausePreviewFailed(reason string) {
	if result := c.takePendingResult(ResultTypePausePreview); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnResumePreviewSucceeded implements capture.ControllerListener.
func (c *Camera) OnResumePreviewSucceeded() {
	if result := c.takePendingResult(ResultTypeResumePreview); result != nil {
		result.Success(nil)
	}
}

// OnResumePreviewFailed implements capture.ControllerListener.
func (c *Camera) OnResumePreviewFailed(reason string) {
	if result := c.takePendingResult(ResultTypeResumePreview); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnStartRecordSucceeded implements capture.ControllerListener.
func (c *Camera) OnStartRecordSucceeded() {
	if result := c.takePendingResult(ResultTypeStartRecord); result != nil {
		result.Success(nil)
	}
}

// OnStartRecordFailed implements capture.ControllerListener.
func (c *Camera) OnStartRecordFailed(reason string) {
	if result := c.takePendingResult(ResultTypeStartRecord); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnStopRecordSucceeded implements capture.ControllerListener.
func (c *Camera) OnStopRecordSucceeded(path string) {
	if result := c.takePendingResult(ResultTypeStopRecord); result != nil {
		result.Success(path)
	}
	c.indexCapture(store.KindVideo, path, 0)
}

// OnStopRecordFailed implements capture.ControllerListener.
func (c *Camera) OnStopRecordFailed(reason string) {
	if result := c.takePendingResult(ResultTypeStopRecord); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnTakePictureSucceeded implements capture.ControllerListener.
func (c *Camera) OnTakePictureSucceeded(path string) {
	if result := c.takePendingResult(ResultTypeTakePicture); result != nil {
		result.Success(path)
	}
	c.indexCapture(store.KindPhoto, path, 0)
}

// OnTakePictureFailed implements capture.ControllerListener.
func (c *Camera) OnTakePictureFailed(reason string) {
	if result := c.takePendingResult(ResultTypeTakePicture); result != nil {
		result.Error("camera_error", reason)
	}
}

// OnVideoRecordSucceeded implements capture.ControllerListener. Timed
// recordings complete without a user request, so the outcome is pushed
// as an event instead of resolving a pending result.
func (c *Camera) OnVideoRecordSucceeded(path string, durationMS int64) {
	c.mu.Lock()
	messenger := c.messenger
	cameraID := c.cameraID
	c.mu.Unlock()

	if messenger != nil && cameraID >= 0 {
		messenger.InvokeMethod(cameraID, VideoRecordedEvent, map[string]any{
			"path":             path,
			"maxVideoDuration": durationMS,
		})
	}
}

// OnVideoRecordFailed implements capture.ControllerListener. The stop
// outcome already reaches the stop-record pending result when one
// exists; there is nothing further to push.
func (c *Camera) OnVideoRecordFailed(reason string) {}

// OnCaptureError implements capture.ControllerListener. A pipeline
// error invalidates every awaited outcome, so all pending results fail
// alongside the pushed error event.
func (c *Camera) OnCaptureError(reason string) {
	c.mu.Lock()
	messenger := c.messenger
	cameraID := c.cameraID
	c.mu.Unlock()

	if messenger != nil && cameraID >= 0 {
		messenger.InvokeMethod(cameraID, ErrorEvent, map[string]any{
			"description": reason,
		})
	}

	c.sendErrorForPendingResults("capture_error", reason)
}
