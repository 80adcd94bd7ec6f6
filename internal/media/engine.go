package media

import "errors"

// Errors shared by engine implementations.
var (
	// ErrEngineNotInitialized is returned when an operation requires an
	// initialized engine.
	ErrEngineNotInitialized = errors.New("capture engine is not initialized")
	// ErrNoMediaType is returned when format enumeration yields no candidates.
	ErrNoMediaType = errors.New("no suitable media type found")
)

// EventKind identifies an asynchronous capture engine event.
type EventKind int

const (
	// EventEngineError reports a pipeline-level failure outside any
	// specific operation.
	EventEngineError EventKind = iota
	// EventEngineInitialized completes engine initialization.
	EventEngineInitialized
	// EventPreviewStarted reports that the engine started the preview
	// stream. Consumers should treat the first delivered frame as the
	// real start signal; engines may post this immediately before an
	// error.
	EventPreviewStarted
	// EventPreviewStopped completes a preview stop request.
	EventPreviewStopped
	// EventRecordStarted completes a record start request.
	EventRecordStarted
	// EventRecordStopped completes a record stop request.
	EventRecordStopped
	// EventPhotoTaken completes a photo capture request.
	EventPhotoTaken
)

// String returns the event kind name for logs.
func (k EventKind) String() string {
	switch k {
	case EventEngineError:
		return "engine_error"
	case EventEngineInitialized:
		return "engine_initialized"
	case EventPreviewStarted:
		return "preview_started"
	case EventPreviewStopped:
		return "preview_stopped"
	case EventRecordStarted:
		return "record_started"
	case EventRecordStopped:
		return "record_stopped"
	case EventPhotoTaken:
		return "photo_taken"
	default:
		return "unknown"
	}
}

// Event is one asynchronous notification posted by a capture engine to
// its observer. A nil Err marks a successful outcome.
type Event struct {
	Kind EventKind
	Err  error
}

// OK reports whether the event carries a success status.
func (e Event) OK() bool {
	return e.Err == nil
}

// Observer receives events and samples from a capture engine. Engines
// must deliver events off the goroutine that issued the triggering
// request; observers may assume callbacks never reenter a request call.
type Observer interface {
	// OnEvent delivers one asynchronous engine event.
	OnEvent(event Event)

	// IsReadyForSample reports whether the observer currently accepts
	// preview frame data. Engines skip the buffer copy while it is
	// false; capture time updates are delivered regardless.
	IsReadyForSample() bool

	// GetFrameBuffer returns a buffer of exactly size bytes for the next
	// raw frame. The observer owns the buffer and reuses it while the
	// size is unchanged.
	GetFrameBuffer(size int) []byte

	// OnBufferUpdated signals that the buffer returned by GetFrameBuffer
	// holds a complete new frame.
	OnBufferUpdated()

	// UpdateCaptureTime delivers the capture timestamp, in microseconds,
	// of each processed frame.
	UpdateCaptureTime(timestampUS uint64)
}

// Engine is the capability interface over one native capture device.
// Requests return synchronously with setup errors only; completion is
// reported later through observer events.
type Engine interface {
	// Initialize starts asynchronous engine setup. Completion arrives as
	// an EventEngineInitialized event.
	Initialize() error

	// MediaTypes enumerates the device's native formats for a stream.
	MediaTypes(stream StreamKind) ([]MediaType, error)

	// StartPreview configures the preview sink for the given format and
	// starts frame delivery. Sink setup is idempotent: a sink configured
	// by an earlier call is reused.
	StartPreview(mt MediaType) error

	// StopPreview stops preview frame delivery. Completion arrives as an
	// EventPreviewStopped event.
	StopPreview() error

	// StartRecord begins writing video to path using the given capture
	// format. Completion arrives as an EventRecordStarted event.
	StartRecord(path string, mt MediaType) error

	// StopRecord finalizes the active recording. Completion arrives as
	// an EventRecordStopped event.
	StopRecord() error

	// TakePhoto captures one still frame to path using the given capture
	// format. Completion arrives as an EventPhotoTaken event.
	TakePhoto(path string, mt MediaType) error

	// Close releases the device and stops event delivery.
	Close() error
}

// EngineConfig carries the per-session parameters an engine is built with.
type EngineConfig struct {
	DeviceID    string
	EnableAudio bool
}

// Pipeline constructs engines. Sessions receive a Pipeline at
// construction time so tests can substitute the device layer.
type Pipeline interface {
	CreateEngine(cfg EngineConfig, observer Observer) (Engine, error)
}
