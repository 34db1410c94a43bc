package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// PhotoCallbacks is the ordered stage contract of the photo pipeline.
// Exactly one of OnAssistantResponse or OnError fires per invocation.
type PhotoCallbacks struct {
	OnCaptureStarted             func()
	OnPhotoTaken                 func()
	OnVisionAnalysisStarted      func()
	OnAssistantProcessingStarted func()
	OnAssistantResponse          func(text string)
	OnError                      func(err error)
}

// PhotoPipeline turns one still photo into one assistant exchange: capture,
// analyze, hand the description off to the run executor. Image analysis and
// agent hand-off are two distinct remote calls. Instances are single-use.
type PhotoPipeline struct {
	invocation

	camera   domain.Camera
	gateway  domain.ConversationGateway
	executor *RunExecutor

	cancel context.CancelFunc
}

// NewPhotoPipeline creates a single-use photo pipeline
func NewPhotoPipeline(camera domain.Camera, gateway domain.ConversationGateway, executor *RunExecutor) *PhotoPipeline {
	return &PhotoPipeline{
		invocation: newInvocation(),
		camera:     camera,
		gateway:    gateway,
		executor:   executor,
	}
}

// Start captures a photo and runs the pipeline to its terminal callback.
// prompt optionally steers the analysis and is prepended to the agent
// message. If threadID is empty a fresh remote thread is created.
func (p *PhotoPipeline) Start(ctx context.Context, agentID, threadID, prompt string, cb PhotoCallbacks) error {
	if !p.begin() {
		return domain.ErrPipelineDisposed
	}

	ctx, p.cancel = context.WithCancel(ctx)
	ctx = logger.With(ctx, zap.String("invocation_id", p.id))

	logger.Debug("Photo pipeline started",
		"invocation_id", p.id,
		"agent_id", agentID,
		"thread_id", threadID)

	cb.OnCaptureStarted()

	go p.run(ctx, agentID, threadID, prompt, cb)
	return nil
}

func (p *PhotoPipeline) run(ctx context.Context, agentID, threadID, prompt string, cb PhotoCallbacks) {
	image, err := p.camera.TakePicture(ctx)
	if err != nil {
		if p.finish() {
			cb.OnError(err)
		}
		return
	}

	if !p.alive() {
		return
	}
	cb.OnPhotoTaken()
	cb.OnVisionAnalysisStarted()

	analysis, err := p.gateway.AnalyzeImage(ctx, image, prompt)
	if err != nil {
		if p.finish() {
			cb.OnError(err)
		}
		return
	}

	if !p.alive() {
		return
	}
	cb.OnAssistantProcessingStarted()

	if threadID == "" {
		threadID, err = p.gateway.CreateThread(ctx)
		if err != nil {
			if p.finish() {
				cb.OnError(err)
			}
			return
		}
	}

	response, err := p.executor.Execute(ctx, threadID, agentID, composePhotoMessage(prompt, analysis))
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

// Cancel disposes the invocation, cancels remote calls and discards any
// late-arriving callbacks
func (p *PhotoPipeline) Cancel() {
	p.dispose()
	if p.cancel != nil {
		p.cancel()
	}
}

// composePhotoMessage concatenates the optional caller prompt with the vision
// analysis to form the agent message
func composePhotoMessage(prompt, analysis string) string {
	var b strings.Builder
	if prompt != "" {
		b.WriteString(prompt)
		b.WriteString("\n\n")
	}
	b.WriteString("[Photo] ")
	b.WriteString(analysis)
	return b.String()
}
