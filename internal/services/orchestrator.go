package services

import (
	"context"
	"sync"
	"time"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// pipelineHandle is the cancellation surface the orchestrator keeps for the
// one pipeline invocation that may be in flight
type pipelineHandle interface {
	Cancel()
}

// Orchestrator coordinates one active-mode session: it ties the thread
// manager, the modality pipelines and the speech toggle together under
// single-flight discipline and emits a uniform event stream to the
// presentation layer.
//
// All state transitions happen in a single logical sequence: public methods
// serialize on the state mutex, and every event reaches the sink through one
// funnel.
type Orchestrator struct {
	cfg         *config.Config
	gateway     domain.ConversationGateway
	threads     domain.ThreadManager
	store       storage.ThreadStorage
	credentials domain.CredentialStore
	recorder    domain.AudioRecorder
	camera      domain.Camera
	speech      *SpeechService
	executor    *RunExecutor
	sink        domain.EventSink

	mu            sync.Mutex
	active        bool
	agentID       string
	threadID      string
	audioResponse bool
	inFlight      pipelineHandle

	emitMu sync.Mutex
}

// NewOrchestrator creates an orchestrator in the Inactive state. The
// audio-response preference is restored from storage; it is a single global
// toggle persisted across sessions.
func NewOrchestrator(
	cfg *config.Config,
	gateway domain.ConversationGateway,
	threads domain.ThreadManager,
	store storage.ThreadStorage,
	credentials domain.CredentialStore,
	recorder domain.AudioRecorder,
	camera domain.Camera,
	player domain.SpeechPlayer,
	sink domain.EventSink,
) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		gateway:     gateway,
		threads:     threads,
		store:       store,
		credentials: credentials,
		recorder:    recorder,
		camera:      camera,
		speech:      NewSpeechService(gateway, player, cfg.Speech),
		executor: NewRunExecutor(gateway,
			time.Duration(cfg.Run.PollIntervalMs)*time.Millisecond,
			cfg.Run.MaxPollAttempts),
		sink: sink,
	}

	value, err := store.LoadPreference(context.Background(), storage.PrefAudioResponse)
	if err != nil {
		logger.Warn("Failed to restore audio-response preference", "error", err)
	}
	o.audioResponse = value == "true"

	return o
}

// EnterActiveMode validates the credential, ensures a valid thread for the
// agent and transitions to Active. On any failure the orchestrator stays
// Inactive and the error reaches the sink.
func (o *Orchestrator) EnterActiveMode(ctx context.Context, agentID string) error {
	if o.IsActive() {
		o.ExitActiveMode()
	}

	if _, ok := o.credentials.GetCredential(); !ok {
		o.emitError(domain.ErrNoCredential)
		return domain.ErrNoCredential
	}

	threadID, err := o.threads.EnsureActiveThread(ctx, agentID)
	if err != nil {
		o.emitError(err)
		return err
	}

	o.mu.Lock()
	o.active = true
	o.agentID = agentID
	o.threadID = threadID
	o.mu.Unlock()

	logger.Info("Entered active mode", "agent_id", agentID, "thread_id", threadID)
	o.emit(domain.ActiveModeStartedEvent{BaseSessionEvent: domain.Base(), AgentID: agentID, ThreadID: threadID})
	return nil
}

// ExitActiveMode transitions to Inactive, cancelling any in-flight pipeline
// and stopping speech playback. Calling it while already Inactive is a no-op:
// no callbacks fire.
func (o *Orchestrator) ExitActiveMode() {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}

	flight := o.inFlight
	o.active = false
	o.agentID = ""
	o.threadID = ""
	o.inFlight = nil
	o.mu.Unlock()

	if flight != nil {
		flight.Cancel()
	}
	o.speech.Stop()

	logger.Info("Exited active mode")
	o.emit(domain.ActiveModeEndedEvent{BaseSessionEvent: domain.Base()})
}

// SendAudio records one utterance and sends it to the current thread.
// Preconditioned on Active; rejected while another exchange is in flight.
func (o *Orchestrator) SendAudio(ctx context.Context) error {
	pipeline := NewAudioPipeline(o.recorder, o.gateway, o.executor, o.cfg.Audio)

	agentID, threadID, err := o.beginExchange(pipeline)
	if err != nil {
		o.emitError(err)
		return err
	}

	err = pipeline.Start(ctx, agentID, threadID, AudioCallbacks{
		OnRecordingStarted: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Listening..."})
		},
		OnProcessingStarted: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Processing..."})
		},
		OnAssistantResponse: func(text string) {
			o.endExchange(pipeline)
			o.recordExchange(ctx, agentID)
			o.handleAssistantResponse(ctx, text)
		},
		OnError: func(err error) {
			o.endExchange(pipeline)
			o.emitError(err)
		},
	})
	if err != nil {
		o.endExchange(pipeline)
		o.emitError(err)
		return err
	}

	return nil
}

// SendPhoto captures one photo and sends its analysis to the current thread.
// Preconditioned on Active; rejected while another exchange is in flight.
func (o *Orchestrator) SendPhoto(ctx context.Context, prompt string) error {
	pipeline := NewPhotoPipeline(o.camera, o.gateway, o.executor)

	agentID, threadID, err := o.beginExchange(pipeline)
	if err != nil {
		o.emitError(err)
		return err
	}

	err = pipeline.Start(ctx, agentID, threadID, prompt, PhotoCallbacks{
		OnCaptureStarted: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Taking photo..."})
		},
		OnPhotoTaken: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Photo captured"})
		},
		OnVisionAnalysisStarted: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Analyzing photo..."})
		},
		OnAssistantProcessingStarted: func() {
			o.emit(domain.StatusUpdateEvent{BaseSessionEvent: domain.Base(), Text: "Asking assistant..."})
		},
		OnAssistantResponse: func(text string) {
			o.endExchange(pipeline)
			o.recordExchange(ctx, agentID)
			o.handleAssistantResponse(ctx, text)
		},
		OnError: func(err error) {
			o.endExchange(pipeline)
			o.emitError(err)
		},
	})
	if err != nil {
		o.endExchange(pipeline)
		o.emitError(err)
		return err
	}

	return nil
}

// StopAudioCapture ends the recording stage early; the captured audio still
// flows through transcription
func (o *Orchestrator) StopAudioCapture() {
	o.mu.Lock()
	flight := o.inFlight
	o.mu.Unlock()

	if audio, ok := flight.(*AudioPipeline); ok {
		audio.StopCapture()
	}
}

// CreateNewThread replaces the session's current thread with a fresh one.
// Preconditioned on Active; rejected while an exchange is in flight.
func (o *Orchestrator) CreateNewThread(ctx context.Context) error {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		o.emitError(domain.ErrActiveModeRequired)
		return domain.ErrActiveModeRequired
	}
	if o.inFlight != nil {
		o.mu.Unlock()
		o.emitError(domain.ErrOperationInProgress)
		return domain.ErrOperationInProgress
	}
	agentID := o.agentID
	o.mu.Unlock()

	threadID, err := o.threads.CreateNewThread(ctx, agentID)
	if err != nil {
		o.emitError(err)
		return err
	}

	o.mu.Lock()
	// active mode may have been exited while the create was in flight
	if o.active && o.agentID == agentID {
		o.threadID = threadID
	}
	o.mu.Unlock()

	o.emit(domain.ThreadCreatedEvent{BaseSessionEvent: domain.Base(), ThreadID: threadID})
	return nil
}

// ToggleAudioResponse flips and persists the audio-response preference
func (o *Orchestrator) ToggleAudioResponse(ctx context.Context) error {
	o.mu.Lock()
	o.audioResponse = !o.audioResponse
	enabled := o.audioResponse
	o.mu.Unlock()

	value := "false"
	if enabled {
		value = "true"
	}
	if err := o.store.SavePreference(ctx, storage.PrefAudioResponse, value); err != nil {
		logger.Warn("Failed to persist audio-response preference", "error", err)
	}

	o.emit(domain.AudioToggledEvent{BaseSessionEvent: domain.Base(), Enabled: enabled})
	return nil
}

// handleAssistantResponse is the single funnel for assistant replies: the
// text always reaches the sink; speech playback is additional and its failure
// never retracts the already-delivered text.
func (o *Orchestrator) handleAssistantResponse(ctx context.Context, text string) {
	o.emit(domain.AssistantResponseEvent{BaseSessionEvent: domain.Base(), Text: text})

	o.mu.Lock()
	speak := o.audioResponse && o.active
	o.mu.Unlock()

	if !speak {
		return
	}

	go func() {
		if err := o.speech.Speak(ctx, text); err != nil {
			logger.Warn("Speech playback failed", "error", err)
			o.emitError(err)
		}
	}()
}

// IsActive reports whether the orchestrator is in active mode
func (o *Orchestrator) IsActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Busy reports whether an exchange is currently in flight
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight != nil
}

// CurrentAgentID returns the active agent id, or "" when Inactive
func (o *Orchestrator) CurrentAgentID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agentID
}

// CurrentThreadID returns the session's thread id, or "" when Inactive
func (o *Orchestrator) CurrentThreadID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.threadID
}

// AudioResponseEnabled reports the current audio-response preference
func (o *Orchestrator) AudioResponseEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.audioResponse
}

// beginExchange validates preconditions and claims the single-flight slot
// for the given pipeline in one critical section
func (o *Orchestrator) beginExchange(p pipelineHandle) (agentID, threadID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.active {
		return "", "", domain.ErrActiveModeRequired
	}
	if o.inFlight != nil {
		return "", "", domain.ErrOperationInProgress
	}

	o.inFlight = p
	return o.agentID, o.threadID, nil
}

// endExchange releases the single-flight slot if the given pipeline still
// owns it
func (o *Orchestrator) endExchange(p pipelineHandle) {
	o.mu.Lock()
	if o.inFlight == p {
		o.inFlight = nil
	}
	o.mu.Unlock()
}

// recordExchange updates thread metadata after a successful exchange
func (o *Orchestrator) recordExchange(ctx context.Context, agentID string) {
	if err := o.threads.IncrementMessageCount(ctx, agentID); err != nil {
		logger.Warn("Failed to update thread metadata", "agent_id", agentID, "error", err)
	}
}

// emit delivers an event through the callback funnel; emissions are
// serialized so the presentation layer observes a single logical sequence
func (o *Orchestrator) emit(event domain.SessionEvent) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.sink.Publish(event)
}

func (o *Orchestrator) emitError(err error) {
	o.emit(domain.ErrorEvent{BaseSessionEvent: domain.Base(), Err: err})
}
