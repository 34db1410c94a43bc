package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

const chunkInterval = 100 * time.Millisecond

// StubRecorder implements the audio capture device contract without real
// hardware: it streams silent single-channel PCM chunks at the configured
// sample rate until stopped. It stands in for the device driver, which is
// integration-specific.
type StubRecorder struct {
	sampleRate int

	mu        sync.Mutex
	recording bool
	stop      chan struct{}
}

// Compile-time assertion that the recorder honors the device contract
var _ domain.AudioRecorder = (*StubRecorder)(nil)

// NewStubRecorder creates a recorder producing silence at the given sample rate
func NewStubRecorder(sampleRate int) *StubRecorder {
	return &StubRecorder{sampleRate: sampleRate}
}

// StartRecording begins capture. Exactly one of OnComplete or OnError fires,
// when recording is stopped or the context is cancelled.
func (r *StubRecorder) StartRecording(ctx context.Context, cb domain.RecordingCallbacks) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("%w: recording already in progress", domain.ErrCaptureDevice)
	}
	r.recording = true
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	go r.capture(ctx, stop, cb)
	return nil
}

func (r *StubRecorder) capture(ctx context.Context, stop chan struct{}, cb domain.RecordingCallbacks) {
	// 16-bit mono PCM
	chunkSize := r.sampleRate * 2 / int(time.Second/chunkInterval)
	chunk := make([]byte, chunkSize)

	var pcm []byte
	started := time.Now()

	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	finish := func() {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()

		if cb.OnComplete != nil {
			cb.OnComplete(pcm, time.Since(started))
		}
	}

	for {
		select {
		case <-ctx.Done():
			finish()
			return
		case <-stop:
			finish()
			return
		case <-ticker.C:
			pcm = append(pcm, chunk...)
			if cb.OnChunk != nil {
				cb.OnChunk(chunk)
			}
			if cb.OnAmplitude != nil {
				cb.OnAmplitude(0)
			}
		}
	}
}

// StopRecording forces completion with whatever was captured so far
func (r *StubRecorder) StopRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording || r.stop == nil {
		return
	}

	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}
