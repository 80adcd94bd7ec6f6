package capture

import "github.com/ayusman/mohini/internal/media"

// recordState tracks the recording sub-session lifecycle.
type recordState int

const (
	recordStateIdle recordState = iota
	recordStateStarting
	recordStateRunning
	recordStateStopping
)

// recordHandler owns the recording lifecycle: continuous recordings run
// until stopped, timed recordings carry a duration budget measured
// against frame capture timestamps.
type recordHandler struct {
	state recordState
	timed bool
	path  string

	maxDurationMS int64

	// Capture timestamp of the first recorded frame, in microseconds.
	// Negative until the first frame arrives.
	startTimestampUS int64
	durationUS       int64
}

func newRecordHandler() *recordHandler {
	return &recordHandler{startTimestampUS: -1}
}

// StartRecord requests a recording to path using the base capture
// format. A positive maxDurationMS makes the recording timed.
func (h *recordHandler) StartRecord(path string, maxDurationMS int64, engine media.Engine, base media.MediaType) error {
	h.path = path
	h.maxDurationMS = maxDurationMS
	h.timed = maxDurationMS > 0
	h.startTimestampUS = -1
	h.durationUS = 0

	if err := engine.StartRecord(path, base); err != nil {
		return err
	}

	h.state = recordStateStarting
	return nil
}

// StopRecord requests the active recording to stop.
func (h *recordHandler) StopRecord(engine media.Engine) error {
	if err := engine.StopRecord(); err != nil {
		return err
	}
	h.state = recordStateStopping
	return nil
}

// OnRecordStarted moves a starting recording to running.
func (h *recordHandler) OnRecordStarted() {
	if h.state == recordStateStarting {
		h.state = recordStateRunning
	}
}

// OnRecordStopped resets the handler so a new recording may start.
func (h *recordHandler) OnRecordStopped() {
	h.state = recordStateIdle
	h.timed = false
}

// CanStart reports whether a new recording may begin.
func (h *recordHandler) CanStart() bool {
	return h.state == recordStateIdle
}

// CanStop reports whether an active recording exists to stop.
func (h *recordHandler) CanStop() bool {
	return h.state == recordStateStarting || h.state == recordStateRunning
}

// IsContinuousRecording reports an active open-ended recording.
func (h *recordHandler) IsContinuousRecording() bool {
	return !h.timed && h.state != recordStateIdle
}

// IsTimedRecording reports an active duration-bounded recording. It
// stays true through the stopping state so the stop outcome can still
// be routed to the timed-record notification channel.
func (h *recordHandler) IsTimedRecording() bool {
	return h.timed && h.state != recordStateIdle
}

// UpdateRecordingTime accumulates elapsed capture time from a frame
// timestamp. The first frame after a start anchors the elapsed clock.
func (h *recordHandler) UpdateRecordingTime(timestampUS uint64) {
	if h.state != recordStateRunning {
		return
	}

	ts := int64(timestampUS)
	if h.startTimestampUS < 0 {
		h.startTimestampUS = ts
	}
	h.durationUS = ts - h.startTimestampUS
}

// ShouldStopTimedRecording reports whether a timed recording has
// reached its duration budget.
func (h *recordHandler) ShouldStopTimedRecording() bool {
	return h.timed && h.state == recordStateRunning &&
		h.startTimestampUS >= 0 && h.durationUS >= h.maxDurationMS*1000
}

// RecordedDurationUS returns the elapsed recorded time in microseconds.
func (h *recordHandler) RecordedDurationUS() int64 {
	return h.durationUS
}

// Path returns the recording target path.
func (h *recordHandler) Path() string {
	return h.path
}
