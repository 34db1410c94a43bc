package domain

import (
	"context"
	"time"
)

// ConversationGateway is the stateless request surface of the remote
// conversation system. Implementations retain no conversation state.
type ConversationGateway interface {
	// CreateThread creates a new remote thread and returns its id.
	// Not idempotent; must not be retried blindly.
	CreateThread(ctx context.Context) (string, error)

	// PostMessage appends a user message to the thread
	PostMessage(ctx context.Context, threadID, text string) error

	// CreateRun submits the thread for execution by the given agent.
	// Not idempotent; must not be retried blindly.
	CreateRun(ctx context.Context, threadID, agentID string) (string, error)

	// GetRunStatus fetches the current status of a run
	GetRunStatus(ctx context.Context, threadID, runID string) (Run, error)

	// GetLatestAssistantMessage returns the most recent assistant-authored
	// message text on the thread, or ErrNoResponse when none exists
	GetLatestAssistantMessage(ctx context.Context, threadID string) (string, error)

	// Transcribe converts captured audio to text
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)

	// SynthesizeSpeech converts text to playable audio
	SynthesizeSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error)

	// AnalyzeImage describes an image, optionally steered by a prompt
	AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error)
}

// ThreadManager owns the durable thread identifier per agent and its metadata
type ThreadManager interface {
	// EnsureActiveThread returns the current valid thread for the agent,
	// creating and persisting a new one when none exists or the existing one
	// expired. Never returns an expired thread.
	EnsureActiveThread(ctx context.Context, agentID string) (string, error)

	// CreateNewThread unconditionally discards any existing thread for the
	// agent and creates a fresh one
	CreateNewThread(ctx context.Context, agentID string) (string, error)

	// ClearActiveThread removes the persisted mapping without contacting the
	// remote system
	ClearActiveThread(ctx context.Context, agentID string) error

	// Touch updates the thread's last-used time after a successful exchange
	Touch(ctx context.Context, agentID string) error

	// IncrementMessageCount bumps the thread's message count after a
	// successful exchange
	IncrementMessageCount(ctx context.Context, agentID string) error

	// IsExpired is a pure function of the record's creation time and the TTL
	IsExpired(rec ThreadRecord, now time.Time) bool

	// CleanupExpired sweeps persisted storage and removes entries older than
	// the TTL; advisory housekeeping only
	CleanupExpired(ctx context.Context) (int, error)
}

// CredentialStore provides the bearer credential for the gateway. Absence is
// a valid, expected state.
type CredentialStore interface {
	GetCredential() (string, bool)
}

// RecordingCallbacks is the audio capture device contract
type RecordingCallbacks struct {
	OnChunk     func(pcm []byte)
	OnAmplitude func(level float64)
	OnComplete  func(pcm []byte, duration time.Duration)
	OnError     func(err error)
}

// AudioRecorder captures a single-channel PCM stream at a fixed sample rate
type AudioRecorder interface {
	// StartRecording begins capture; exactly one of OnComplete or OnError
	// fires per recording
	StartRecording(ctx context.Context, cb RecordingCallbacks) error

	// StopRecording forces OnComplete with whatever was captured so far
	StopRecording()
}

// Camera returns a compressed still image under a fixed size ceiling
type Camera interface {
	TakePicture(ctx context.Context) ([]byte, error)
}

// SpeechPlayer plays synthesized audio on the device
type SpeechPlayer interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}
