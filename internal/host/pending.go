// Package host exposes a capture session to the host bridge: it keeps
// one pending result per operation kind, translates session listener
// callbacks into result resolutions and pushes asynchronous events over
// the messenger.
package host

// PendingResultType keys the pending-result table: at most one request
// of each kind may be outstanding.
type PendingResultType int

const (
	// ResultTypeCreateCamera resolves the create/initialize-device request.
	ResultTypeCreateCamera PendingResultType = iota
	// ResultTypeInitialize resolves the preview initialization request.
	ResultTypeInitialize
	// ResultTypeStartRecord resolves a start-recording request.
	ResultTypeStartRecord
	// ResultTypeStopRecord resolves a stop-recording request.
	ResultTypeStopRecord
	// ResultTypeTakePicture resolves a still-capture request.
	ResultTypeTakePicture
	// ResultTypeResumePreview resolves a resume-preview request.
	ResultTypeResumePreview
	// ResultTypePausePreview resolves a pause-preview request.
	ResultTypePausePreview
)

// pendingResultTypeCount is the size of the pending-result table.
const pendingResultTypeCount = 7

// String returns the operation kind name.
func (t PendingResultType) String() string {
	switch t {
	case ResultTypeCreateCamera:
		return "create"
	case ResultTypeInitialize:
		return "initialize"
	case ResultTypeStartRecord:
		return "startRecord"
	case ResultTypeStopRecord:
		return "stopRecord"
	case ResultTypeTakePicture:
		return "takePicture"
	case ResultTypeResumePreview:
		return "resumePreview"
	case ResultTypePausePreview:
		return "pausePreview"
	default:
		return "unknown"
	}
}

// Result receives the outcome of one host-bridge invocation. Exactly
// one of Success or Error is called, exactly once: the camera removes a
// pending result from its table before resolving it.
type Result interface {
	Success(value any)
	Error(code, message string)
}
