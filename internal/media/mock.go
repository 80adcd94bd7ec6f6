package media

import (
	"sync"
	"time"
)

// MockEngine is a scripted capture engine for tests. Requests are
// recorded, optional errors simulate setup failures, and tests drive
// completion by emitting events and samples explicitly.
type MockEngine struct {
	mu       sync.Mutex
	observer Observer
	calls    []string

	// Types holds the formats returned per stream. Populated with a
	// default candidate set by NewMockEngine.
	Types map[StreamKind][]MediaType

	// Scripted errors returned by the matching request.
	InitializeErr   error
	MediaTypesErr   error
	StartPreviewErr error
	StopPreviewErr  error
	StartRecordErr  error
	StopRecordErr   error
	TakePhotoErr    error

	// LastPreviewType, LastRecordPath and LastPhotoPath capture request
	// arguments for assertions.
	LastPreviewType MediaType
	LastRecordPath  string
	LastPhotoPath   string
}

// NewMockEngine creates a mock engine with a default format set.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Types: map[StreamKind][]MediaType{
			StreamPreview: {
				{Width: 320, Height: 240, FrameRate: 30, Subtype: "YUY2"},
				{Width: 640, Height: 480, FrameRate: 30, Subtype: "YUY2"},
				{Width: 1280, Height: 720, FrameRate: 30, Subtype: "YUY2"},
				{Width: 1920, Height: 1080, FrameRate: 30, Subtype: "YUY2"},
			},
			StreamRecord: {
				{Width: 640, Height: 480, FrameRate: 30, Subtype: "YUY2"},
				{Width: 1920, Height: 1080, FrameRate: 30, Subtype: "YUY2"},
			},
		},
	}
}

// Bind attaches the observer. Called by MockPipeline.
func (e *MockEngine) Bind(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = observer
}

func (e *MockEngine) record(call string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
}

// Calls returns the recorded request names in order.
func (e *MockEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// CallCount returns how many times the named request was issued.
func (e *MockEngine) CallCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, call := range e.calls {
		if call == name {
			count++
		}
	}
	return count
}

// WaitForCall polls until the named request has been issued at least
// once, or the timeout passes.
func (e *MockEngine) WaitForCall(name string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.CallCount(name) > 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// Emit delivers an event to the bound observer. Tests must call Emit
// from their own goroutine, never from inside a scripted request.
func (e *MockEngine) Emit(event Event) {
	e.mu.Lock()
	observer := e.observer
	e.mu.Unlock()

	if observer != nil {
		observer.OnEvent(event)
	}
}

// EmitSample mimics one delivered frame: the pixel data is copied into
// the observer's frame buffer when the observer is ready, and the
// capture timestamp is always delivered.
func (e *MockEngine) EmitSample(timestampUS uint64, pixels []byte) {
	e.mu.Lock()
	observer := e.observer
	e.mu.Unlock()

	if observer == nil {
		return
	}

	if len(pixels) > 0 && observer.IsReadyForSample() {
		buffer := observer.GetFrameBuffer(len(pixels))
		copy(buffer, pixels)
		observer.OnBufferUpdated()
	}
	observer.UpdateCaptureTime(timestampUS)
}

// Initialize implements Engine.
func (e *MockEngine) Initialize() error {
	e.record("Initialize")
	return e.InitializeErr
}

// MediaTypes implements Engine.
func (e *MockEngine) MediaTypes(stream StreamKind) ([]MediaType, error) {
	e.record("MediaTypes")
	if e.MediaTypesErr != nil {
		return nil, e.MediaTypesErr
	}
	return e.Types[stream], nil
}

// StartPreview implements Engine.
func (e *MockEngine) StartPreview(mt MediaType) error {
	e.record("StartPreview")
	e.mu.Lock()
	e.LastPreviewType = mt
	e.mu.Unlock()
	return e.StartPreviewErr
}

// StopPreview implements Engine.
func (e *MockEngine) StopPreview() error {
	e.record("StopPreview")
	return e.StopPreviewErr
}

// StartRecord implements Engine.
func (e *MockEngine) StartRecord(path string, mt MediaType) error {
	e.record("StartRecord")
	e.mu.Lock()
	e.LastRecordPath = path
	e.mu.Unlock()
	return e.StartRecordErr
}

// StopRecord implements Engine.
func (e *MockEngine) StopRecord() error {
	e.record("StopRecord")
	return e.StopRecordErr
}

// TakePhoto implements Engine.
func (e *MockEngine) TakePhoto(path string, mt MediaType) error {
	e.record("TakePhoto")
	e.mu.Lock()
	e.LastPhotoPath = path
	e.mu.Unlock()
	return e.TakePhotoErr
}

// Close implements Engine.
func (e *MockEngine) Close() error {
	e.record("Close")
	return nil
}

// MockPipeline hands out a fixed engine, binding the session's observer
// to it on creation.
type MockPipeline struct {
	Engine    *MockEngine
	CreateErr error
}

// NewMockPipeline creates a pipeline serving the given engine.
func NewMockPipeline(engine *MockEngine) *MockPipeline {
	return &MockPipeline{Engine: engine}
}

// CreateEngine implements Pipeline.
func (p *MockPipeline) CreateEngine(cfg EngineConfig, observer Observer) (Engine, error) {
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.Engine.Bind(observer)
	return p.Engine, nil
}
