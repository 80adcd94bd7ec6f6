package host

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/mohini/internal/capture"
	"github.com/ayusman/mohini/internal/media"
	"github.com/ayusman/mohini/internal/store"
)

// testResult records how a pending result was resolved.
type testResult struct {
	mu        sync.Mutex
	successes []any
	errors    []string
}

func (r *testResult) Success(value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, value)
}

func (r *testResult) Error(code, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, code+": "+message)
}

func (r *testResult) resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes)+len(r.errors) > 0
}

// fakeController records the requests the camera forwards.
type fakeController struct {
	mu    sync.Mutex
	calls []string
}

func (c *fakeController) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeController) callCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, call := range c.calls {
		if call == name {
			count++
		}
	}
	return count
}

func (c *fakeController) InitCaptureDevice(registrar capture.TextureRegistrar, deviceID string, recordAudio bool, preset media.ResolutionPreset) {
	c.record("InitCaptureDevice")
}
func (c *fakeController) StartPreview()  { c.record("StartPreview") }
func (c *fakeController) StopPreview()   { c.record("StopPreview") }
func (c *fakeController) PausePreview()  { c.record("PausePreview") }
func (c *fakeController) ResumePreview() { c.record("ResumePreview") }
func (c *fakeController) TakePicture(path string) {
	c.record("TakePicture")
}
func (c *fakeController) StartRecord(path string, maxVideoDurationMS int64) {
	c.record("StartRecord")
}
func (c *fakeController) StopRecord() { c.record("StopRecord") }
func (c *fakeController) Dispose()    { c.record("Dispose") }

// pushedEvent is one messenger invocation.
type pushedEvent struct {
	cameraID  int64
	method    string
	arguments map[string]any
}

// fakeMessenger records pushed events.
type fakeMessenger struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (m *fakeMessenger) InvokeMethod(cameraID int64, method string, arguments map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, pushedEvent{cameraID: cameraID, method: method, arguments: arguments})
}

// newCreatedCamera builds a camera wired to a fake controller and
// messenger, driven through successful creation.
func newCreatedCamera(t *testing.T) (*Camera, *fakeController, *fakeMessenger) {
	t.Helper()

	camera := NewCamera("0")
	controller := &fakeController{}
	messenger := &fakeMessenger{}
	factory := func(listener capture.ControllerListener) CaptureController {
		return controller
	}

	createResult := &testResult{}
	if !camera.AddPendingResult(ResultTypeCreateCamera, createResult) {
		t.Fatal("failed to add create pending result")
	}
	camera.InitCamera(factory, media.NewTextureRegistry(), messenger, false, media.PresetAuto)

	if controller.callCount("InitCaptureDevice") != 1 {
		t.Fatal("expected InitCaptureDevice to be forwarded")
	}

	camera.OnCreateCaptureEngineSucceeded(7)
	if len(createResult.successes) != 1 {
		t.Fatalf("expected create success, errors: %v", createResult.errors)
	}

	return camera, controller, messenger
}

func TestCamera_Create(t *testing.T) {
	camera, _, _ := newCreatedCamera(t)

	if camera.CameraID() != 7 {
		t.Errorf("CameraID() = %d, want 7", camera.CameraID())
	}
	if camera.DeviceID() != "0" {
		t.Errorf("DeviceID() = %q, want %q", camera.DeviceID(), "0")
	}
}

func TestCamera_CreateResultPayload(t *testing.T) {
	camera := NewCamera("0")
	result := &testResult{}
	camera.AddPendingResult(ResultTypeCreateCamera, result)

	camera.OnCreateCaptureEngineSucceeded(3)

	if len(result.successes) != 1 {
		t.Fatalf("expected success, errors: %v", result.errors)
	}
	payload, ok := result.successes[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", result.successes[0])
	}
	if payload["cameraId"] != int64(3) {
		t.Errorf("cameraId = %v, want 3", payload["cameraId"])
	}
}

func TestCamera_AddPendingResult_Duplicate(t *testing.T) {
	camera := NewCamera("0")

	first := &testResult{}
	if !camera.AddPendingResult(ResultTypeTakePicture, first) {
		t.Fatal("first pending result should be accepted")
	}

	second := &testResult{}
	if camera.AddPendingResult(ResultTypeTakePicture, second) {
		t.Fatal("second pending result of the same kind should be rejected")
	}

	if len(second.errors) != 1 || second.errors[0] != "Duplicate request: Method handler already called" {
		t.Errorf("expected duplicate-request error, got %v", second.errors)
	}

	// The first result is untouched
	if first.resolved() {
		t.Error("first pending result should remain pending")
	}
	if !camera.HasPendingResult(ResultTypeTakePicture) {
		t.Error("the original pending result should still be outstanding")
	}
}

func TestCamera_RequestsRequireController(t *testing.T) {
	camera := NewCamera("0")

	tests := []struct {
		name    string
		request func(result Result)
	}{
		{"initialize", func(r Result) { camera.Initialize(r) }},
		{"pausePreview", func(r Result) { camera.PausePreview(r) }},
		{"resumePreview", func(r Result) { camera.ResumePreview(r) }},
		{"takePicture", func(r Result) { camera.TakePicture(r, "/tmp/shot.jpg") }},
		{"startVideoRecording", func(r Result) { camera.StartVideoRecording(r, "/tmp/out.avi", 0) }},
		{"stopVideoRecording", func(r Result) { camera.StopVideoRecording(r) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &testResult{}
			tt.request(result)

			if len(result.errors) != 1 || result.errors[0] != "camera_error: Camera not created" {
				t.Errorf("expected 'Camera not created' error, got %v", result.errors)
			}
		})
	}
}

func TestCamera_RequestsForwardToController(t *testing.T) {
	camera, controller, _ := newCreatedCamera(t)

	tests := []struct {
		name     string
		request  func(result Result)
		wantCall string
	}{
		{"initialize", func(r Result) { camera.Initialize(r) }, "StartPreview"},
		{"pausePreview", func(r Result) { camera.PausePreview(r) }, "PausePreview"},
		{"resumePreview", func(r Result) { camera.ResumePreview(r) }, "ResumePreview"},
		{"takePicture", func(r Result) { camera.TakePicture(r, "/tmp/shot.jpg") }, "TakePicture"},
		{"startVideoRecording", func(r Result) { camera.StartVideoRecording(r, "/tmp/out.avi", 0) }, "StartRecord"},
		{"stopVideoRecording", func(r Result) { camera.StopVideoRecording(r) }, "StopRecord"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &testResult{}
			tt.request(result)

			if controller.callCount(tt.wantCall) != 1 {
				t.Errorf("expected %s to be forwarded once", tt.wantCall)
			}
			if result.resolved() {
				t.Error("result should stay pending until the listener callback")
			}
		})
	}
}

func TestCamera_InitializeResolvesWithPreviewSize(t *testing.T) {
	camera, _, _ := newCreatedCamera(t)

	result := &testResult{}
	camera.Initialize(result)
	camera.OnStartPreviewSucceeded(1280, 720)

	if len(result.successes) != 1 {
		t.Fatalf("expected success, errors: %v", result.errors)
	}
	payload := result.successes[0].(map[string]any)
	if payload["previewWidth"] != float64(1280) || payload["previewHeight"] != float64(720) {
		t.Errorf("payload = %v, want previewWidth 1280 previewHeight 720", payload)
	}
}

func TestCamera_CallbackWithoutPendingResult(t *testing.T) {
	camera, _, _ := newCreatedCamera(t)

	// Listener callbacks with no matching pending request are no-ops
	camera.OnStartPreviewSucceeded(640, 480)
	camera.OnPausePreviewSucceeded()
	camera.OnStopRecordFailed("nothing pending")
	camera.OnTakePictureFailed("nothing pending")
}

func TestCamera_Dispose(t *testing.T) {
	camera, controller, _ := newCreatedCamera(t)

	pending := []*testResult{{}, {}, {}}
	camera.Initialize(pending[0])
	camera.TakePicture(pending[1], "/tmp/shot.jpg")
	camera.StartVideoRecording(pending[2], "/tmp/out.avi", 0)

	camera.Dispose()

	if controller.callCount("Dispose") != 1 {
		t.Error("expected controller Dispose to be called")
	}

	for i, result := range pending {
		if len(result.errors) != 1 || result.errors[0] != "plugin_disposed: Plugin disposed before request was handled" {
			t.Errorf("pending result %d: expected disposal error, got %v", i, result.errors)
		}
	}

	// Requests after disposal fail: the controller is gone
	late := &testResult{}
	camera.Initialize(late)
	if len(late.errors) != 1 || late.errors[0] != "camera_error: Camera not created" {
		t.Errorf("expected 'Camera not created' after dispose, got %v", late.errors)
	}
}

func TestCamera_OnCaptureError(t *testing.T) {
	camera, _, messenger := newCreatedCamera(t)

	pending := []*testResult{{}, {}}
	camera.Initialize(pending[0])
	camera.TakePicture(pending[1], "/tmp/shot.jpg")

	camera.OnCaptureError("device lost")

	// Every pending result fails
	for i, result := range pending {
		if len(result.errors) != 1 || result.errors[0] != "capture_error: device lost" {
			t.Errorf("pending result %d: expected capture error, got %v", i, result.errors)
		}
	}

	// Exactly one error event is pushed
	if len(messenger.events) != 1 {
		t.Fatalf("expected 1 pushed event, got %d", len(messenger.events))
	}
	event := messenger.events[0]
	if event.method != ErrorEvent || event.cameraID != 7 {
		t.Errorf("pushed event = %+v, want %s for camera 7", event, ErrorEvent)
	}
	if event.arguments["description"] != "device lost" {
		t.Errorf("description = %v, want 'device lost'", event.arguments["description"])
	}
}

func TestCamera_OnVideoRecordSucceeded(t *testing.T) {
	camera, _, messenger := newCreatedCamera(t)

	camera.OnVideoRecordSucceeded("/tmp/timed.avi", 5000)

	if len(messenger.events) != 1 {
		t.Fatalf("expected 1 pushed event, got %d", len(messenger.events))
	}
	event := messenger.events[0]
	if event.method != VideoRecordedEvent || event.cameraID != 7 {
		t.Errorf("pushed event = %+v, want %s for camera 7", event, VideoRecordedEvent)
	}
	if event.arguments["path"] != "/tmp/timed.avi" {
		t.Errorf("path = %v, want /tmp/timed.avi", event.arguments["path"])
	}
	if event.arguments["maxVideoDuration"] != int64(5000) {
		t.Errorf("maxVideoDuration = %v, want 5000", event.arguments["maxVideoDuration"])
	}
}

func TestCamera_IndexesCompletedCaptures(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mohini-host-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	camera, _, _ := newCreatedCamera(t)
	camera.SetCaptureIndex(st.Captures())

	photoResult := &testResult{}
	camera.TakePicture(photoResult, "/tmp/shot.jpg")
	camera.OnTakePictureSucceeded("/tmp/shot.jpg")

	videoResult := &testResult{}
	camera.StartVideoRecording(videoResult, "/tmp/out.avi", 0)
	camera.OnStartRecordSucceeded()
	stopResult := &testResult{}
	camera.StopVideoRecording(stopResult)
	camera.OnStopRecordSucceeded("/tmp/out.avi")

	photos, err := st.Captures().ListByKind(store.KindPhoto)
	if err != nil {
		t.Fatalf("failed to list photos: %v", err)
	}
	if len(photos) != 1 || photos[0].Path != "/tmp/shot.jpg" {
		t.Errorf("expected 1 indexed photo at /tmp/shot.jpg, got %v", photos)
	}

	videos, err := st.Captures().ListByKind(store.KindVideo)
	if err != nil {
		t.Fatalf("failed to list videos: %v", err)
	}
	if len(videos) != 1 || videos[0].Path != "/tmp/out.avi" {
		t.Errorf("expected 1 indexed video at /tmp/out.avi, got %v", videos)
	}

	if len(photos) == 1 && photos[0].CameraID != 7 {
		t.Errorf("photo camera id = %d, want 7", photos[0].CameraID)
	}
}
