package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// fakeGateway is a scriptable in-memory gateway. Zero value answers every
// call successfully with canned content.
type fakeGateway struct {
	mu sync.Mutex

	threadSeq       int
	createThreadErr error

	posted   []string
	postedTo []string
	postErr  error

	runSeq       int
	createRunErr error

	statuses  []domain.Run
	statusErr error
	polls     int

	reply    string
	replyErr error

	transcript    string
	transcribeErr error

	speechErr error

	analysis   string
	analyzeErr error
}

var _ domain.ConversationGateway = (*fakeGateway)(nil)

func (g *fakeGateway) CreateThread(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createThreadErr != nil {
		return "", g.createThreadErr
	}
	g.threadSeq++
	return fmt.Sprintf("thread_%d", g.threadSeq), nil
}

func (g *fakeGateway) PostMessage(ctx context.Context, threadID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.postErr != nil {
		return g.postErr
	}
	g.posted = append(g.posted, text)
	g.postedTo = append(g.postedTo, threadID)
	return nil
}

func (g *fakeGateway) CreateRun(ctx context.Context, threadID, agentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createRunErr != nil {
		return "", g.createRunErr
	}
	g.runSeq++
	return fmt.Sprintf("run_%d", g.runSeq), nil
}

func (g *fakeGateway) GetRunStatus(ctx context.Context, threadID, runID string) (domain.Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.statusErr != nil {
		return domain.Run{}, g.statusErr
	}

	g.polls++
	if len(g.statuses) == 0 {
		return domain.Run{RunID: runID, ThreadID: threadID, Status: domain.RunStatusCompleted}, nil
	}

	idx := g.polls - 1
	if idx >= len(g.statuses) {
		idx = len(g.statuses) - 1
	}
	run := g.statuses[idx]
	run.RunID = runID
	run.ThreadID = threadID
	return run, nil
}

func (g *fakeGateway) GetLatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.replyErr != nil {
		return "", g.replyErr
	}
	if g.reply == "" {
		return "canned reply", nil
	}
	return g.reply, nil
}

func (g *fakeGateway) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.transcribeErr != nil {
		return "", g.transcribeErr
	}
	if g.transcript == "" {
		return "what is this", nil
	}
	return g.transcript, nil
}

func (g *fakeGateway) SynthesizeSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.speechErr != nil {
		return nil, g.speechErr
	}
	return []byte("audio-bytes"), nil
}

func (g *fakeGateway) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.analyzeErr != nil {
		return "", g.analyzeErr
	}
	if g.analysis == "" {
		return "a desk with a laptop", nil
	}
	return g.analysis, nil
}

func (g *fakeGateway) pollCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.polls
}

func (g *fakeGateway) postedMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.posted...)
}

func (g *fakeGateway) postedThreads() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.postedTo...)
}

func (g *fakeGateway) threadsCreated() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threadSeq
}

// fakeRecorder hands control of the recording life cycle to the test: the
// test fires completion explicitly, or StopRecording does with the staged
// capture.
type fakeRecorder struct {
	mu       sync.Mutex
	cb       domain.RecordingCallbacks
	started  int
	finished bool

	pcm      []byte
	duration time.Duration
	startErr error
}

var _ domain.AudioRecorder = (*fakeRecorder)(nil)

func (r *fakeRecorder) StartRecording(ctx context.Context, cb domain.RecordingCallbacks) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startErr != nil {
		return r.startErr
	}
	r.cb = cb
	r.started++
	r.finished = false
	return nil
}

func (r *fakeRecorder) StopRecording() {
	r.complete(r.pcm, r.duration)
}

// complete fires OnComplete once per recording
func (r *fakeRecorder) complete(pcm []byte, duration time.Duration) {
	r.mu.Lock()
	if r.started == 0 || r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	cb := r.cb
	r.mu.Unlock()

	if cb.OnComplete != nil {
		cb.OnComplete(pcm, duration)
	}
}

func (r *fakeRecorder) fail(err error) {
	r.mu.Lock()
	if r.started == 0 || r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	cb := r.cb
	r.mu.Unlock()

	if cb.OnError != nil {
		cb.OnError(err)
	}
}

type fakeCamera struct {
	image []byte
	err   error
}

var _ domain.Camera = (*fakeCamera)(nil)

func (c *fakeCamera) TakePicture(ctx context.Context) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.image == nil {
		return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
	}
	return c.image, nil
}

type fakePlayer struct {
	mu      sync.Mutex
	played  [][]byte
	stopped int
	err     error
}

var _ domain.SpeechPlayer = (*fakePlayer)(nil)

func (p *fakePlayer) Play(ctx context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, audio)
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

// captureSink records every published event for later assertions
type captureSink struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

var _ domain.EventSink = (*captureSink)(nil)

func (s *captureSink) Publish(event domain.SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) snapshot() []domain.SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SessionEvent(nil), s.events...)
}

func (s *captureSink) count(match func(domain.SessionEvent) bool) int {
	n := 0
	for _, event := range s.snapshot() {
		if match(event) {
			n++
		}
	}
	return n
}

// waitFor blocks until an event matching the predicate was published
func (s *captureSink) waitFor(t *testing.T, match func(domain.SessionEvent) bool) domain.SessionEvent {
	t.Helper()

	var found domain.SessionEvent
	require.Eventually(t, func() bool {
		for _, event := range s.snapshot() {
			if match(event) {
				found = event
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	return found
}

func isAssistantResponse(event domain.SessionEvent) bool {
	_, ok := event.(domain.AssistantResponseEvent)
	return ok
}

func isErrorEvent(event domain.SessionEvent) bool {
	_, ok := event.(domain.ErrorEvent)
	return ok
}

// testConfig returns a config tuned for fast tests
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Gateway.APIKey = "test-key"
	cfg.Run.PollIntervalMs = 1
	cfg.Run.MaxPollAttempts = 5
	cfg.Audio.MaxRecordingSec = 60
	cfg.Audio.MinRecordingMs = 1000
	cfg.Storage.Type = "memory"
	return cfg
}
