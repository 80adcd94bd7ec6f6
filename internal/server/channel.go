// Package server provides the HTTP server for the Mohini capture daemon.
package server

import (
	"log"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/mohini/internal/host"
	"github.com/ayusman/mohini/internal/media"
	"github.com/ayusman/mohini/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// methodCall is one request received over the method channel.
type methodCall struct {
	ID     int64          `json:"id"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args"`
}

// methodError carries a failed call outcome.
type methodError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// methodResponse resolves one method call. Exactly one of Result and
// Error is set.
type methodResponse struct {
	ID     int64        `json:"id"`
	Result any          `json:"result,omitempty"`
	Error  *methodError `json:"error,omitempty"`
}

// eventMessage is a server-initiated push with no associated call.
type eventMessage struct {
	Event    string         `json:"event"`
	CameraID int64          `json:"cameraId"`
	Data     map[string]any `json:"data"`
}

// channelClient is one connected method-channel client. The mutex
// serializes writes: responses resolve from capture goroutines
// concurrently with event broadcasts.
type channelClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *channelClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// wsResult resolves one method call back over its originating
// connection. It implements host.Result.
type wsResult struct {
	client *channelClient
	id     int64
}

// Success implements host.Result.
func (r *wsResult) Success(value any) {
	if err := r.client.writeJSON(methodResponse{ID: r.id, Result: value}); err != nil {
		log.Printf("channel: failed to write response: %v", err)
	}
}

// Error implements host.Result.
func (r *wsResult) Error(code, message string) {
	err := r.client.writeJSON(methodResponse{
		ID:    r.id,
		Error: &methodError{Code: code, Message: message},
	})
	if err != nil {
		log.Printf("channel: failed to write error response: %v", err)
	}
}

// createResult registers the camera with the handler once creation
// succeeds, then forwards the outcome.
type createResult struct {
	*wsResult
	handler *ChannelHandler
	camera  *host.Camera
}

func (r *createResult) Success(value any) {
	r.handler.registerCamera(r.camera)
	r.wsResult.Success(value)
}

// ChannelHandler serves the camera method channel over WebSocket. Each
// call carries an id, a method name and arguments; the response echoes
// the id. Asynchronous events (timed recording completion, capture
// errors) are broadcast to every connected client.
type ChannelHandler struct {
	pipeline media.Pipeline
	registry *media.TextureRegistry
	mediaDir string

	mu       sync.RWMutex
	clients  map[*channelClient]bool
	cameras  map[int64]*host.Camera
	captures *store.CaptureRepository

	// Observes every pushed event. The tray uses it to surface capture
	// completions.
	eventHook func(event string, cameraID int64, data map[string]any)
}

// NewChannelHandler creates a method channel handler over the given
// pipeline and texture registry. Captured media files are written under
// mediaDir.
func NewChannelHandler(pipeline media.Pipeline, registry *media.TextureRegistry, mediaDir string) *ChannelHandler {
	return &ChannelHandler{
		pipeline: pipeline,
		registry: registry,
		mediaDir: mediaDir,
		clients:  make(map[*channelClient]bool),
		cameras:  make(map[int64]*host.Camera),
	}
}

// SetEventHook installs a hook observing every pushed event.
func (h *ChannelHandler) SetEventHook(hook func(event string, cameraID int64, data map[string]any)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventHook = hook
}

// SetCaptureIndex attaches the capture index; cameras created
// afterwards record completed captures there.
func (h *ChannelHandler) SetCaptureIndex(captures *store.CaptureRepository) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures = captures
}

// ServeHTTP handles WebSocket upgrade requests and runs the call loop.
func (h *ChannelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &channelClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}()

	for {
		var call methodCall
		if err := conn.ReadJSON(&call); err != nil {
			break
		}
		h.dispatch(client, call)
	}
}

// InvokeMethod implements host.Messenger by broadcasting the event to
// every connected client.
func (h *ChannelHandler) InvokeMethod(cameraID int64, method string, arguments map[string]any) {
	msg := eventMessage{Event: method, CameraID: cameraID, Data: arguments}

	h.mu.RLock()
	clients := make([]*channelClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	hook := h.eventHook
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(msg); err != nil {
			log.Printf("channel: failed to push %s event: %v", method, err)
		}
	}

	if hook != nil {
		hook(method, cameraID, arguments)
	}
}

// registerCamera indexes a camera by its assigned camera id.
func (h *ChannelHandler) registerCamera(camera *host.Camera) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cameras[camera.CameraID()] = camera
}

// cameraFor resolves the camera named by the cameraId argument, failing
// the result when it does not exist.
func (h *ChannelHandler) cameraFor(args map[string]any, result host.Result) *host.Camera {
	id, ok := argInt64(args, "cameraId")
	if !ok {
		result.Error("camera_error", "cameraId argument is required")
		return nil
	}

	h.mu.RLock()
	camera := h.cameras[id]
	h.mu.RUnlock()

	if camera == nil {
		result.Error("camera_error", "Camera not found")
		return nil
	}
	return camera
}

// removeCamera drops a camera from the index.
func (h *ChannelHandler) removeCamera(camera *host.Camera) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cameras, camera.CameraID())
}

// Cameras returns the currently registered cameras.
func (h *ChannelHandler) Cameras() []*host.Camera {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cameras := make([]*host.Camera, 0, len(h.cameras))
	for _, camera := range h.cameras {
		cameras = append(cameras, camera)
	}
	return cameras
}

// DisposeAll disposes every registered camera. Used on shutdown.
func (h *ChannelHandler) DisposeAll() {
	h.mu.Lock()
	cameras := make([]*host.Camera, 0, len(h.cameras))
	for id, camera := range h.cameras {
		cameras = append(cameras, camera)
		delete(h.cameras, id)
	}
	h.mu.Unlock()

	for _, camera := range cameras {
		camera.Dispose()
	}
}

// dispatch routes one method call.
func (h *ChannelHandler) dispatch(client *channelClient, call methodCall) {
	result := &wsResult{client: client, id: call.ID}

	switch call.Method {
	case "availableCameras":
		result.Success(media.EnumerateDevices())

	case "create":
		h.create(client, call)

	case "initialize":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			camera.Initialize(result)
		}

	case "pausePreview":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			camera.PausePreview(result)
		}

	case "resumePreview":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			camera.ResumePreview(result)
		}

	case "takePicture":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			path := filepath.Join(h.mediaDir, uuid.NewString()+".jpg")
			camera.TakePicture(result, path)
		}

	case "startVideoRecording":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			maxDurationMS, _ := argInt64(call.Args, "maxVideoDuration")
			path := filepath.Join(h.mediaDir, uuid.NewString()+".avi")
			camera.StartVideoRecording(result, path, maxDurationMS)
		}

	case "stopVideoRecording":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			camera.StopVideoRecording(result)
		}

	case "dispose":
		if camera := h.cameraFor(call.Args, result); camera != nil {
			h.removeCamera(camera)
			camera.Dispose()
			result.Success(nil)
		}

	default:
		result.Error("unknown_method", "Unknown method: "+call.Method)
	}
}

// create handles the create method: it builds a camera for the named
// device and starts capture session initialization. The response
// carries the assigned camera id once the engine reports ready.
func (h *ChannelHandler) create(client *channelClient, call methodCall) {
	result := &wsResult{client: client, id: call.ID}

	deviceID, _ := argString(call.Args, "cameraName")
	if deviceID == "" {
		result.Error("camera_error", "cameraName argument is required")
		return
	}

	presetName, _ := argString(call.Args, "resolutionPreset")
	preset, err := media.ParsePreset(presetName)
	if err != nil {
		result.Error("camera_error", err.Error())
		return
	}

	enableAudio, _ := argBool(call.Args, "enableAudio")

	camera := host.NewCamera(deviceID)

	h.mu.RLock()
	captures := h.captures
	h.mu.RUnlock()
	if captures != nil {
		camera.SetCaptureIndex(captures)
	}

	pending := &createResult{wsResult: result, handler: h, camera: camera}
	if !camera.AddPendingResult(host.ResultTypeCreateCamera, pending) {
		return
	}

	camera.InitCamera(host.DefaultControllerFactory(h.pipeline), h.registry, h, enableAudio, preset)
}

// Argument helpers. JSON numbers decode as float64.

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func argBool(args map[string]any, key string) (bool, bool) {
	v, ok := args[key].(bool)
	return v, ok
}

func argInt64(args map[string]any, key string) (int64, bool) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}
