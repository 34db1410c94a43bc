package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// AudioCallbacks is the ordered stage contract of the audio pipeline.
// Exactly one of OnAssistantResponse or OnError fires per invocation.
type AudioCallbacks struct {
	OnRecordingStarted  func()
	OnProcessingStarted func()
	OnAssistantResponse func(text string)
	OnError             func(err error)
}

// AudioPipeline turns one spoken utterance into one assistant exchange:
// record, transcribe, hand off to the run executor. Instances are single-use;
// construct a new pipeline per invocation.
type AudioPipeline struct {
	invocation

	recorder domain.AudioRecorder
	gateway  domain.ConversationGateway
	executor *RunExecutor
	cfg      config.AudioConfig

	cancel    context.CancelFunc
	stopTimer *time.Timer
}

// NewAudioPipeline creates a single-use audio pipeline
func NewAudioPipeline(recorder domain.AudioRecorder, gateway domain.ConversationGateway, executor *RunExecutor, cfg config.AudioConfig) *AudioPipeline {
	return &AudioPipeline{
		invocation: newInvocation(),
		recorder:   recorder,
		gateway:    gateway,
		executor:   executor,
		cfg:        cfg,
	}
}

// Start begins recording and runs the pipeline to its terminal callback.
// If threadID is empty a fresh remote thread is created for the exchange.
func (p *AudioPipeline) Start(ctx context.Context, agentID, threadID string, cb AudioCallbacks) error {
	if !p.begin() {
		return domain.ErrPipelineDisposed
	}

	ctx, p.cancel = context.WithCancel(ctx)
	ctx = logger.With(ctx, zap.String("invocation_id", p.id))

	logger.Debug("Audio pipeline started",
		"invocation_id", p.id,
		"agent_id", agentID,
		"thread_id", threadID)

	cb.OnRecordingStarted()

	maxDuration := time.Duration(p.cfg.MaxRecordingSec) * time.Second
	p.stopTimer = time.AfterFunc(maxDuration, func() {
		// auto-stop shares the manual-stop path: whatever was captured so
		// far is still handed off
		logger.Debug("Recording ceiling reached, auto-stopping", "invocation_id", p.id)
		p.recorder.StopRecording()
	})

	err := p.recorder.StartRecording(ctx, domain.RecordingCallbacks{
		OnComplete: func(pcm []byte, duration time.Duration) {
			p.stopTimer.Stop()
			go p.process(ctx, agentID, threadID, pcm, duration, cb)
		},
		OnError: func(err error) {
			p.stopTimer.Stop()
			if p.finish() {
				cb.OnError(err)
			}
		},
	})
	if err != nil {
		p.stopTimer.Stop()
		if p.finish() {
			return err
		}
		return domain.ErrPipelineDisposed
	}

	return nil
}

func (p *AudioPipeline) process(ctx context.Context, agentID, threadID string, pcm []byte, duration time.Duration, cb AudioCallbacks) {
	if !p.alive() {
		return
	}

	minDuration := time.Duration(p.cfg.MinRecordingMs) * time.Millisecond
	if duration < minDuration {
		if p.finish() {
			cb.OnError(domain.ErrRecordingTooShort)
		}
		return
	}

	cb.OnProcessingStarted()

	text, err := p.gateway.Transcribe(ctx, pcm, p.cfg.Language)
	if err != nil {
		if p.finish() {
			cb.OnError(err)
		}
		return
	}

	if !p.alive() {
		return
	}

	if threadID == "" {
		threadID, err = p.gateway.CreateThread(ctx)
		if err != nil {
			if p.finish() {
				cb.OnError(err)
			}
			return
		}
	}

	response, err := p.executor.Execute(ctx, threadID, agentID, text)
	if err != nil {
		if p.finish() {
			cb.OnError(err)
		}
		return
	}

	if p.finish() {
		cb.OnAssistantResponse(response)
	}
}

// StopCapture ends the recording stage early; the captured audio is still
// handed off downstream
func (p *AudioPipeline) StopCapture() {
	p.recorder.StopRecording()
}

// Cancel disposes the invocation: stops recording, cancels remote calls and
// discards any late-arriving callbacks
func (p *AudioPipeline) Cancel() {
	p.dispose()
	if p.stopTimer != nil {
		p.stopTimer.Stop()
	}
	p.recorder.StopRecording()
	if p.cancel != nil {
		p.cancel()
	}
}
