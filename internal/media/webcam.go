package media

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default frame rate used when the device does not report one.
const defaultFrameRate = 30

// Candidate frame sizes probed during format enumeration. Devices
// accept a subset of these; the accepted sizes become the enumerated
// media types.
var probeSizes = [][2]uint32{
	{320, 240},
	{640, 480},
	{1280, 720},
	{1920, 1080},
	{2560, 1440},
	{3840, 2160},
}

// WebcamPipeline builds WebcamEngine instances. It is the production
// Pipeline implementation.
type WebcamPipeline struct{}

// NewWebcamPipeline creates the production pipeline.
func NewWebcamPipeline() *WebcamPipeline {
	return &WebcamPipeline{}
}

// CreateEngine implements Pipeline.
func (p *WebcamPipeline) CreateEngine(cfg EngineConfig, observer Observer) (Engine, error) {
	return NewWebcamEngine(cfg, observer)
}

// WebcamEngine is a capture engine over a local webcam using GoCV.
// Audio capture is not supported by the backend; EnableAudio is
// accepted and logged so sessions keep their requested configuration.
type WebcamEngine struct {
	deviceID    int
	enableAudio bool
	observer    Observer

	mu            sync.Mutex
	capture       *gocv.VideoCapture
	writer        *gocv.VideoWriter
	previewActive bool
	recordActive  bool
	photoPending  bool
	photoPath     string
	frameInterval time.Duration
	loopStop      chan struct{}
	closed        bool

	events chan Event
	done   chan struct{}
}

// NewWebcamEngine creates an engine for the device id in cfg. The id
// must be a capture device index.
func NewWebcamEngine(cfg EngineConfig, observer Observer) (*WebcamEngine, error) {
	index, err := strconv.Atoi(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid capture device id %q: %w", cfg.DeviceID, err)
	}

	e := &WebcamEngine{
		deviceID:      index,
		enableAudio:   cfg.EnableAudio,
		observer:      observer,
		frameInterval: time.Second / defaultFrameRate,
		events:        make(chan Event, 16),
		done:          make(chan struct{}),
	}
	go e.dispatchEvents()
	return e, nil
}

// dispatchEvents delivers events to the observer off the request path.
func (e *WebcamEngine) dispatchEvents() {
	for {
		select {
		case event := <-e.events:
			e.observer.OnEvent(event)
		case <-e.done:
			return
		}
	}
}

func (e *WebcamEngine) post(event Event) {
	select {
	case e.events <- event:
	default:
		log.Printf("webcam engine: dropped event %s", event.Kind)
	}
}

// Initialize opens the capture device asynchronously and posts
// EventEngineInitialized with the outcome.
func (e *WebcamEngine) Initialize() error {
	if e.enableAudio {
		log.Printf("webcam engine: audio capture not supported by backend, recording video only")
	}

	go func() {
		capture, err := gocv.OpenVideoCapture(e.deviceID)

		e.mu.Lock()
		if err == nil {
			e.capture = capture
		}
		e.mu.Unlock()

		if err != nil {
			e.post(Event{Kind: EventEngineInitialized, Err: fmt.Errorf("failed to open capture device %d: %w", e.deviceID, err)})
			return
		}
		e.post(Event{Kind: EventEngineInitialized})
	}()

	return nil
}

// MediaTypes probes the device for accepted frame sizes. Preview and
// record streams share the same native formats on this backend.
func (e *WebcamEngine) MediaTypes(stream StreamKind) ([]MediaType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capture == nil {
		return nil, ErrEngineNotInitialized
	}

	frameRate := e.capture.Get(gocv.VideoCaptureFPS)
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}

	var types []MediaType
	seen := make(map[[2]uint32]bool)
	for _, size := range probeSizes {
		e.capture.Set(gocv.VideoCaptureFrameWidth, float64(size[0]))
		e.capture.Set(gocv.VideoCaptureFrameHeight, float64(size[1]))

		got := [2]uint32{
			uint32(e.capture.Get(gocv.VideoCaptureFrameWidth)),
			uint32(e.capture.Get(gocv.VideoCaptureFrameHeight)),
		}
		if got[0] == 0 || got[1] == 0 || seen[got] {
			continue
		}
		seen[got] = true
		types = append(types, MediaType{
			Width:     got[0],
			Height:    got[1],
			FrameRate: frameRate,
			Subtype:   "YUY2",
		})
	}

	if len(types) == 0 {
		return nil, ErrNoMediaType
	}
	return types, nil
}

// StartPreview applies the preview format and starts the frame loop.
func (e *WebcamEngine) StartPreview(mt MediaType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capture == nil {
		return ErrEngineNotInitialized
	}

	e.applyFormatLocked(mt)
	e.previewActive = true
	e.ensureLoopLocked()
	e.post(Event{Kind: EventPreviewStarted})
	return nil
}

// StopPreview stops preview delivery and posts EventPreviewStopped.
func (e *WebcamEngine) StopPreview() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.previewActive = false
	e.stopLoopIfIdleLocked()
	e.post(Event{Kind: EventPreviewStopped})
	return nil
}

// StartRecord opens a video writer for path and starts the frame loop.
func (e *WebcamEngine) StartRecord(path string, mt MediaType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capture == nil {
		return ErrEngineNotInitialized
	}
	if e.writer != nil {
		return errors.New("recording already active")
	}

	frameRate := mt.FrameRate
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}

	writer, err := gocv.VideoWriterFile(path, "MJPG", frameRate, int(mt.Width), int(mt.Height), true)
	if err != nil {
		return fmt.Errorf("failed to open video writer: %w", err)
	}

	e.applyFormatLocked(mt)
	e.writer = writer
	e.recordActive = true
	e.ensureLoopLocked()
	e.post(Event{Kind: EventRecordStarted})
	return nil
}

// StopRecord finalizes the active recording and posts EventRecordStopped.
func (e *WebcamEngine) StopRecord() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer == nil {
		return errors.New("no active recording")
	}

	e.recordActive = false
	err := e.writer.Close()
	e.writer = nil
	e.stopLoopIfIdleLocked()

	e.post(Event{Kind: EventRecordStopped, Err: err})
	return nil
}

// TakePhoto schedules a still capture of the next frame read from the
// device. The outcome is posted as EventPhotoTaken.
func (e *WebcamEngine) TakePhoto(path string, mt MediaType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capture == nil {
		return ErrEngineNotInitialized
	}
	if e.photoPending {
		return errors.New("photo capture already pending")
	}

	e.photoPending = true
	e.photoPath = path
	e.ensureLoopLocked()
	return nil
}

// Close stops the frame loop, releases the device and ends event
// delivery.
func (e *WebcamEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.loopStop != nil {
		close(e.loopStop)
		e.loopStop = nil
	}
	if e.writer != nil {
		e.writer.Close()
		e.writer = nil
	}

	var err error
	if e.capture != nil {
		err = e.capture.Close()
		e.capture = nil
	}

	close(e.done)
	return err
}

func (e *WebcamEngine) applyFormatLocked(mt MediaType) {
	e.capture.Set(gocv.VideoCaptureFrameWidth, float64(mt.Width))
	e.capture.Set(gocv.VideoCaptureFrameHeight, float64(mt.Height))
	if mt.FrameRate > 0 {
		e.capture.Set(gocv.VideoCaptureFPS, mt.FrameRate)
		e.frameInterval = time.Duration(float64(time.Second) / mt.FrameRate)
	}
}

func (e *WebcamEngine) ensureLoopLocked() {
	if e.loopStop != nil {
		return
	}
	e.loopStop = make(chan struct{})
	go e.runLoop(e.loopStop)
}

func (e *WebcamEngine) stopLoopIfIdleLocked() {
	if e.loopStop != nil && !e.previewActive && !e.recordActive && !e.photoPending {
		close(e.loopStop)
		e.loopStop = nil
	}
}

// runLoop reads frames from the device and feeds the observer's sample
// path, the video writer and pending photo captures.
func (e *WebcamEngine) runLoop(stop chan struct{}) {
	start := time.Now()

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		capture := e.capture
		writer := e.writer
		recording := e.recordActive
		preview := e.previewActive
		photoPending := e.photoPending
		photoPath := e.photoPath
		e.mu.Unlock()

		if capture == nil {
			return
		}
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			continue
		}

		timestampUS := uint64(time.Since(start).Microseconds())

		if recording && writer != nil {
			if err := writer.Write(frame); err != nil {
				log.Printf("webcam engine: failed to write video frame: %v", err)
			}
		}

		if photoPending {
			e.mu.Lock()
			e.photoPending = false
			e.photoPath = ""
			e.stopLoopIfIdleLocked()
			e.mu.Unlock()

			if ok := gocv.IMWrite(photoPath, frame); ok {
				e.post(Event{Kind: EventPhotoTaken})
			} else {
				e.post(Event{Kind: EventPhotoTaken, Err: fmt.Errorf("failed to write photo to %s", photoPath)})
			}
		}

		if preview && e.observer.IsReadyForSample() {
			bgra := gocv.NewMat()
			gocv.CvtColor(frame, &bgra, gocv.ColorBGRToBGRA)
			data := bgra.ToBytes()
			buffer := e.observer.GetFrameBuffer(len(data))
			copy(buffer, data)
			bgra.Close()
			e.observer.OnBufferUpdated()
		}

		e.observer.UpdateCaptureTime(timestampUS)
	}
}
