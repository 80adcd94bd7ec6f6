package capture

import (
	"sync"

	"github.com/ayusman/mohini/internal/media"
)

// EngineState tracks the capture session lifecycle.
type EngineState int

const (
	// EngineStateNotInitialized is the initial and post-reset state.
	EngineStateNotInitialized EngineState = iota
	// EngineStateInitializing is set while engine creation is in flight.
	EngineStateInitializing
	// EngineStateInitialized is set once the engine and texture are ready.
	EngineStateInitialized
)

// ControllerListener receives the outcome of every asynchronous capture
// operation. Each callback pair resolves exactly one request, except
// OnVideoRecordSucceeded/OnVideoRecordFailed which report the
// completion of a timed recording (no user request is associated) and
// OnCaptureError which reports pipeline-level failures.
type ControllerListener interface {
	OnCreateCaptureEngineSucceeded(textureID int64)
	OnCreateCaptureEngineFailed(reason string)

	OnStartPreviewSucceeded(width, height int32)
	OnStartPreviewFailed(reason string)

	OnPausePreviewSucceeded()
	OnPausePreviewFailed(reason string)

	OnResumePreviewSucceeded()
	OnResumePreviewFailed(reason string)

	OnStartRecordSucceeded()
	OnStartRecordFailed(reason string)

	OnStopRecordSucceeded(path string)
	OnStopRecordFailed(reason string)

	OnTakePictureSucceeded(path string)
	OnTakePictureFailed(reason string)

	OnVideoRecordSucceeded(path string, durationMS int64)
	OnVideoRecordFailed(reason string)

	OnCaptureError(reason string)
}

// TextureRegistrar registers pull-based presentation textures. A
// negative id from Register signals registration failure.
type TextureRegistrar interface {
	Register(provider media.PixelBufferProvider) int64
	MarkFrameAvailable(id int64)
	Unregister(id int64)
}

// Controller drives one capture session over a media engine: it owns
// the engine, the preview/photo/record handlers and the frame buffers,
// routes engine events to the matching handler and reports outcomes
// through the listener.
//
// The engine delivers events and samples on its own goroutines; the
// controller mutex serializes those callbacks against the request path.
type Controller struct {
	mu       sync.Mutex
	listener ControllerListener
	pipeline media.Pipeline

	state  EngineState
	engine media.Engine

	registrar   TextureRegistrar
	textureID   int64
	deviceID    string
	preset      media.ResolutionPreset
	recordAudio bool

	// Set while this session holds a platform subsystem reference.
	platformStarted bool

	previewHandler *previewHandler
	photoHandler   *photoHandler
	recordHandler  *recordHandler

	basePreviewType *media.MediaType
	baseCaptureType *media.MediaType

	previewFrameWidth  uint32
	previewFrameHeight uint32

	// Raw device frame in BGRA layout, reallocated only on size change,
	// and the RGBA presentation buffer rebuilt from it on demand.
	sourceBuffer []byte
	destBuffer   []byte
}

// NewController creates a controller reporting to listener and building
// its engine through pipeline.
func NewController(pipeline media.Pipeline, listener ControllerListener) *Controller {
	return &Controller{
		pipeline:  pipeline,
		listener:  listener,
		textureID: -1,
	}
}

// InitCaptureDevice begins session initialization for the given device.
// The outcome is reported through OnCreateCaptureEngineSucceeded or
// OnCreateCaptureEngineFailed; any failure resets the session fully.
func (c *Controller) InitCaptureDevice(registrar TextureRegistrar, deviceID string, recordAudio bool, preset media.ResolutionPreset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == EngineStateInitialized && c.textureID >= 0 {
		c.listener.OnCreateCaptureEngineFailed("Capture device already initialized")
		return
	}
	if c.state == EngineStateInitializing {
		c.listener.OnCreateCaptureEngineFailed("Capture device already initializing")
		return
	}

	c.state = EngineStateInitializing
	c.preset = preset
	c.recordAudio = recordAudio
	c.registrar = registrar
	c.deviceID = deviceID

	// The platform subsystem must be running before any engine exists.
	if !c.platformStarted {
		if err := media.Startup(); err != nil {
			c.listener.OnCreateCaptureEngineFailed("Failed to create camera")
			c.resetLocked()
			return
		}
		c.platformStarted = true
	}

	engine, err := c.pipeline.CreateEngine(media.EngineConfig{
		DeviceID:    deviceID,
		EnableAudio: recordAudio,
	}, c)
	if err != nil {
		c.listener.OnCreateCaptureEngineFailed("Failed to create camera")
		c.resetLocked()
		return
	}
	c.engine = engine

	if err := engine.Initialize(); err != nil {
		c.listener.OnCreateCaptureEngineFailed("Failed to create camera")
		c.resetLocked()
		return
	}
}

// Dispose tears the session down, stopping any active preview or
// recording first.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// TextureID returns the registered presentation texture id, or -1.
func (c *Controller) TextureID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.textureID
}

// resetLocked releases everything the session owns and returns the
// controller to EngineStateNotInitialized.
func (c *Controller) resetLocked() {
	if c.recordHandler != nil {
		if c.recordHandler.IsContinuousRecording() {
			c.stopRecordLocked()
		} else if c.recordHandler.IsTimedRecording() {
			c.stopTimedRecordLocked()
		}
	}

	if c.previewHandler != nil {
		c.stopPreviewLocked()
	}

	if c.platformStarted {
		media.Shutdown()
		c.platformStarted = false
	}

	c.state = EngineStateNotInitialized
	c.recordHandler = nil
	c.previewHandler = nil
	c.photoHandler = nil
	c.previewFrameWidth = 0
	c.previewFrameHeight = 0
	c.basePreviewType = nil
	c.baseCaptureType = nil
	c.sourceBuffer = nil
	c.destBuffer = nil

	if c.engine != nil {
		c.engine.Close()
		c.engine = nil
	}

	if c.registrar != nil && c.textureID > -1 {
		c.registrar.Unregister(c.textureID)
	}
	c.textureID = -1
}

// findBaseMediaTypesLocked enumerates the device formats once per
// session: the preview stream capped by the resolution preset, the
// record/photo stream uncapped.
func (c *Controller) findBaseMediaTypesLocked() bool {
	if c.state != EngineStateInitialized {
		return false
	}

	previewTypes, err := c.engine.MediaTypes(media.StreamPreview)
	if err != nil {
		return false
	}
	bestPreview, ok := media.FindBestMediaType(previewTypes, c.preset.MaxPreviewHeight())
	if !ok {
		return false
	}
	c.basePreviewType = &bestPreview
	c.previewFrameWidth = bestPreview.Width
	c.previewFrameHeight = bestPreview.Height

	captureTypes, err := c.engine.MediaTypes(media.StreamRecord)
	if err != nil {
		return false
	}
	bestCapture, ok := media.FindBestMediaType(captureTypes, ^uint32(0))
	if !ok {
		return false
	}
	c.baseCaptureType = &bestCapture

	return true
}

// TakePicture captures a still photo to path. The outcome arrives via
// OnTakePictureSucceeded or OnTakePictureFailed.
func (c *Controller) TakePicture(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != EngineStateInitialized {
		c.listener.OnTakePictureFailed("Not initialized")
		return
	}

	if c.baseCaptureType == nil {
		if !c.findBaseMediaTypesLocked() {
			c.listener.OnTakePictureFailed("Failed to initialize photo capture")
			return
		}
	}

	if c.photoHandler == nil {
		c.photoHandler = newPhotoHandler()
	} else if c.photoHandler.IsTakingPhoto() {
		// Rejecting the duplicate must leave the in-flight photo alone:
		// its eventual completion still resolves through the handler.
		c.listener.OnTakePictureFailed("Photo already requested")
		return
	}

	if err := c.photoHandler.TakePhoto(path, c.engine, *c.baseCaptureType); err != nil {
		// Destroy the handler so the next request starts clean.
		c.photoHandler = nil
		c.listener.OnTakePictureFailed("Failed to take photo")
	}
}

// StartRecord begins a video recording to path. A positive
// maxVideoDurationMS bounds the recording; it is stopped automatically
// once the captured duration reaches the budget.
func (c *Controller) StartRecord(path string, maxVideoDurationMS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != EngineStateInitialized {
		c.listener.OnStartRecordFailed("Camera not initialized. Camera should be disposed and reinitialized.")
		return
	}

	if c.baseCaptureType == nil {
		if !c.findBaseMediaTypesLocked() {
			c.listener.OnStartRecordFailed("Failed to initialize video recording")
			return
		}
	}

	if c.recordHandler == nil {
		c.recordHandler = newRecordHandler()
	} else if !c.recordHandler.CanStart() {
		// Rejecting the duplicate must leave the active recording alone:
		// it still stops and resolves through the existing handler.
		c.listener.OnStartRecordFailed("Recording cannot be started. Previous recording must be stopped first.")
		return
	}

	if err := c.recordHandler.StartRecord(path, maxVideoDurationMS, c.engine, *c.baseCaptureType); err != nil {
		// Destroy the handler so the next request starts clean.
		c.recordHandler = nil
		c.listener.OnStartRecordFailed("Failed to start video recording")
	}
}

// StopRecord stops the active recording. The outcome arrives via
// OnStopRecordSucceeded or OnStopRecordFailed.
func (c *Controller) StopRecord() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRecordLocked()
}

func (c *Controller) stopRecordLocked() {
	if c.state != EngineStateInitialized {
		c.listener.OnStopRecordFailed("Camera not initialized. Camera should be disposed and reinitialized.")
		return
	}

	// A handler in the stopping state already has a stop in flight; the
	// rejection must not disturb it.
	if c.recordHandler == nil || !c.recordHandler.CanStop() {
		c.listener.OnStopRecordFailed("Recording cannot be stopped.")
		return
	}

	if err := c.recordHandler.StopRecord(c.engine); err != nil {
		c.recordHandler = nil
		c.onRecordStoppedLocked(false, "Failed to stop video recording")
	}
}

// stopTimedRecordLocked stops a timed recording whose budget has
// passed. Failures are reported through OnVideoRecordFailed because no
// stop request is pending.
func (c *Controller) stopTimedRecordLocked() {
	if c.recordHandler == nil || !c.recordHandler.IsTimedRecording() {
		return
	}

	if err := c.recordHandler.StopRecord(c.engine); err != nil {
		c.recordHandler = nil
		c.listener.OnVideoRecordFailed("Failed to record video")
	}
}

// StartPreview starts the live preview feed. Success is reported after
// the first frame arrives, via OnStartPreviewSucceeded with the preview
// dimensions.
func (c *Controller) StartPreview() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != EngineStateInitialized {
		c.listener.OnStartPreviewFailed("Camera not initialized. Camera should be disposed and reinitialized.")
		return
	}

	if c.basePreviewType == nil {
		if !c.findBaseMediaTypesLocked() {
			c.listener.OnStartPreviewFailed("Failed to initialize video preview")
			return
		}
	}

	if c.previewHandler == nil {
		c.previewHandler = newPreviewHandler()
	} else if c.previewHandler.Initialized() {
		// Already running; report success for idempotency.
		c.onPreviewStartedLocked(true, "")
		return
	} else {
		// A starting preview keeps waiting for its first frame; the
		// rejection must not disturb it.
		c.listener.OnStartPreviewFailed("Preview already exists")
		return
	}

	if err := c.previewHandler.StartPreview(c.engine, *c.baseCaptureType); err != nil {
		// Destroy the handler so the next request starts clean.
		c.previewHandler = nil
		c.listener.OnStartPreviewFailed("Failed to start video preview")
	}
}

// StopPreview stops the preview feed. Pause and resume are separate
// operations; stopping tears the preview down.
func (c *Controller) StopPreview() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPreviewLocked()
}

func (c *Controller) stopPreviewLocked() {
	if c.previewHandler == nil {
		return
	}
	c.previewHandler.StopPreview(c.engine)
}

// PausePreview suppresses preview frame delivery to the texture without
// touching the engine.
func (c *Controller) PausePreview() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.previewHandler == nil || !c.previewHandler.Initialized() {
		c.listener.OnPausePreviewFailed("Preview not started")
		return
	}

	if c.previewHandler.PausePreview() {
		c.listener.OnPausePreviewSucceeded()
	} else {
		c.listener.OnPausePreviewFailed("Failed to pause preview")
	}
}

// ResumePreview resumes preview frame delivery after a pause.
func (c *Controller) ResumePreview() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.previewHandler == nil || !c.previewHandler.Initialized() {
		c.listener.OnResumePreviewFailed("Preview not started")
		return
	}

	if c.previewHandler.ResumePreview() {
		c.listener.OnResumePreviewSucceeded()
	} else {
		c.listener.OnResumePreviewFailed("Failed to resume preview")
	}
}

// OnEvent routes engine events to the matching handler. Events are
// ignored unless the session is initializing or initialized. Implements
// media.Observer.
func (c *Controller) OnEvent(event media.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != EngineStateInitialized && c.state != EngineStateInitializing {
		return
	}

	ok := event.OK()
	var reason string
	if event.Err != nil {
		reason = event.Err.Error()
	}

	switch event.Kind {
	case media.EventEngineError:
		c.onCaptureEngineErrorLocked(reason)
	case media.EventEngineInitialized:
		c.onCaptureEngineInitializedLocked(ok, reason)
	case media.EventPreviewStarted:
		// Deliberately unhandled: the preview is marked started on the
		// first delivered frame, because engines can post this event
		// immediately before an error. See UpdateCaptureTime.
	case media.EventPreviewStopped:
		// The handler has no further use once the preview stopped.
		c.previewHandler = nil
	case media.EventRecordStarted:
		c.onRecordStartedLocked(ok, reason)
	case media.EventRecordStopped:
		c.onRecordStoppedLocked(ok, reason)
	case media.EventPhotoTaken:
		c.onPictureLocked(ok, reason)
	}
}

func (c *Controller) onCaptureEngineInitializedLocked(ok bool, reason string) {
	if !ok {
		c.listener.OnCreateCaptureEngineFailed(reason)
		c.resetLocked()
		return
	}

	// Register the presentation texture backed by the on-demand pixel
	// conversion.
	textureID := c.registrar.Register(c.ConvertPixelBuffer)
	if textureID < 0 {
		c.listener.OnCreateCaptureEngineFailed("Failed to register texture")
		c.resetLocked()
		return
	}

	c.textureID = textureID
	c.listener.OnCreateCaptureEngineSucceeded(textureID)
	c.state = EngineStateInitialized
}

func (c *Controller) onCaptureEngineErrorLocked(reason string) {
	c.listener.OnCaptureError(reason)
}

func (c *Controller) onPreviewStartedLocked(ok bool, reason string) {
	if c.previewHandler != nil && ok {
		c.previewHandler.OnPreviewStarted()
	} else {
		// Destroy the handler so the next request starts clean.
		c.previewHandler = nil
	}

	if ok && c.previewFrameWidth > 0 && c.previewFrameHeight > 0 {
		c.listener.OnStartPreviewSucceeded(int32(c.previewFrameWidth), int32(c.previewFrameHeight))
	} else {
		c.listener.OnStartPreviewFailed(reason)
	}
}

func (c *Controller) onRecordStartedLocked(ok bool, reason string) {
	if ok && c.recordHandler != nil {
		c.recordHandler.OnRecordStarted()
		c.listener.OnStartRecordSucceeded()
		return
	}

	c.listener.OnStartRecordFailed(reason)
	c.recordHandler = nil
}

func (c *Controller) onRecordStoppedLocked(ok bool, reason string) {
	if c.recordHandler != nil {
		// The stop-record channel is always notified; timed recordings
		// additionally notify the video-record channel, which has no
		// associated user request.
		if ok {
			path := c.recordHandler.Path()
			c.listener.OnStopRecordSucceeded(path)
			if c.recordHandler.IsTimedRecording() {
				c.listener.OnVideoRecordSucceeded(path, c.recordHandler.RecordedDurationUS()/1000)
			}
		} else {
			c.listener.OnStopRecordFailed(reason)
			if c.recordHandler.IsTimedRecording() {
				c.listener.OnVideoRecordFailed(reason)
			}
		}
	} else if !ok {
		c.listener.OnStopRecordFailed(reason)
	}

	if ok && c.recordHandler != nil {
		c.recordHandler.OnRecordStopped()
	} else {
		c.recordHandler = nil
	}
}

func (c *Controller) onPictureLocked(ok bool, reason string) {
	if ok && c.photoHandler != nil {
		c.listener.OnTakePictureSucceeded(c.photoHandler.Path())
		c.photoHandler.OnPhotoTaken()
		return
	}

	c.listener.OnTakePictureFailed(reason)
	c.photoHandler = nil
}

// IsReadyForSample reports whether preview frames should currently be
// copied into the frame buffer. Implements media.Observer.
func (c *Controller) IsReadyForSample() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.textureID >= 0 && c.previewHandler != nil &&
		(c.previewHandler.IsRunning() || c.previewHandler.IsStarting())
}

// GetFrameBuffer returns the raw frame buffer, reallocating only when
// the requested size differs from the current allocation. Implements
// media.Observer.
func (c *Controller) GetFrameBuffer(size int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.sourceBuffer) != size {
		c.sourceBuffer = make([]byte, size)
	}
	return c.sourceBuffer
}

// OnBufferUpdated marks the registered texture as holding a new frame.
// Implements media.Observer.
func (c *Controller) OnBufferUpdated() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registrar != nil && c.textureID >= 0 {
		c.registrar.MarkFrameAvailable(c.textureID)
	}
}

// UpdateCaptureTime handles the capture timestamp of each processed
// frame: the first frame of a starting preview is the real "preview
// started" signal, and timed recordings are stopped once their budget
// passes. Implements media.Observer.
func (c *Controller) UpdateCaptureTime(timestampUS uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != EngineStateInitialized {
		return
	}

	if c.previewHandler != nil && c.previewHandler.IsStarting() {
		c.onPreviewStartedLocked(true, "")
	}

	if c.recordHandler != nil {
		c.recordHandler.UpdateRecordingTime(timestampUS)
		if c.recordHandler.ShouldStopTimedRecording() {
			c.stopTimedRecordLocked()
		}
	}
}

// ConvertPixelBuffer rebuilds the RGBA presentation buffer from the raw
// BGRA frame, forcing the alpha channel opaque. Returns nil until
// preview dimensions are known. Safe to call from presentation
// goroutines.
func (c *Controller) ConvertPixelBuffer() *media.PixelBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.sourceBuffer) == 0 || c.previewFrameWidth == 0 || c.previewFrameHeight == 0 {
		return nil
	}

	total := int(c.previewFrameWidth) * int(c.previewFrameHeight)
	if total*4 > len(c.sourceBuffer) {
		return nil
	}
	if len(c.destBuffer) != total*4 {
		c.destBuffer = make([]byte, total*4)
	}

	src := c.sourceBuffer
	dst := c.destBuffer
	for i := 0; i < total; i++ {
		dst[i*4+0] = src[i*4+2]
		dst[i*4+1] = src[i*4+1]
		dst[i*4+2] = src[i*4+0]
		dst[i*4+3] = 0xff
	}

	return &media.PixelBuffer{
		Pixels: dst,
		Width:  int(c.previewFrameWidth),
		Height: int(c.previewFrameHeight),
	}
}
