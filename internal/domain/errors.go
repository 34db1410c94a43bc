package domain

import "errors"

// Error taxonomy. Configuration errors are fatal to the requested action
// only; transport errors are retried at the transport layer before being
// surfaced; remote-reported errors are never retried automatically.
var (
	// ErrNoCredential indicates no API credential is configured
	ErrNoCredential = errors.New("no API credential configured")

	// ErrActiveModeRequired indicates an action that is only legal in active mode
	ErrActiveModeRequired = errors.New("active mode required")

	// ErrOperationInProgress indicates a second exchange was attempted while
	// one is already in flight
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrTransport indicates a network-level failure after retries were exhausted
	ErrTransport = errors.New("transport error")

	// ErrRemote indicates a remote-reported (4xx class) error
	ErrRemote = errors.New("remote error")

	// ErrRunFailed indicates the remote run terminated in a failure state
	ErrRunFailed = errors.New("run failed")

	// ErrRunPollTimeout indicates the poll attempt ceiling fired before the
	// run reached a terminal state; the run's true final state is unknown
	ErrRunPollTimeout = errors.New("run polling timed out")

	// ErrNoResponse indicates a completed run produced no assistant message
	ErrNoResponse = errors.New("no assistant response")

	// ErrRecordingTooShort indicates the captured audio is below the minimum
	// duration and was rejected before transcription
	ErrRecordingTooShort = errors.New("recording too short")

	// ErrCaptureDevice indicates a local recording or camera failure
	ErrCaptureDevice = errors.New("capture device error")

	// ErrPipelineDisposed indicates a pipeline invocation was cancelled and
	// discards late-arriving callbacks
	ErrPipelineDisposed = errors.New("pipeline disposed")

	// ErrThreadNotFound indicates no persisted thread exists for the agent
	ErrThreadNotFound = errors.New("thread not found")
)
