package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
)

type orchestratorFixture struct {
	orch     *Orchestrator
	gateway  *fakeGateway
	recorder *fakeRecorder
	player   *fakePlayer
	sink     *captureSink
	store    *storage.MemoryStorage
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	cfg := testConfig()
	gw := &fakeGateway{}
	store := storage.NewMemoryStorage()
	recorder := &fakeRecorder{}
	player := &fakePlayer{}
	sink := &captureSink{}

	orch := NewOrchestrator(cfg, gw, NewThreadManager(gw, store, 24*time.Hour), store,
		NewConfigCredentialStore(cfg), recorder, &fakeCamera{}, player, sink)

	return &orchestratorFixture{
		orch:     orch,
		gateway:  gw,
		recorder: recorder,
		player:   player,
		sink:     sink,
		store:    store,
	}
}

func TestOrchestratorEnterActiveMode(t *testing.T) {
	ctx := context.Background()

	t.Run("missing credential fails before any network call", func(t *testing.T) {
		cfg := testConfig()
		cfg.Gateway.APIKey = ""
		t.Setenv("GLASS_API_KEY", "")

		gw := &fakeGateway{}
		store := storage.NewMemoryStorage()
		sink := &captureSink{}
		orch := NewOrchestrator(cfg, gw, NewThreadManager(gw, store, 24*time.Hour), store,
			NewConfigCredentialStore(cfg), &fakeRecorder{}, &fakeCamera{}, &fakePlayer{}, sink)

		err := orch.EnterActiveMode(ctx, "asst_1")
		require.ErrorIs(t, err, domain.ErrNoCredential)
		assert.False(t, orch.IsActive())
		assert.Zero(t, gw.threadsCreated())
		assert.Equal(t, 1, sink.count(isErrorEvent))
	})

	t.Run("success creates exactly one thread", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))

		assert.True(t, f.orch.IsActive())
		assert.Equal(t, "asst_1", f.orch.CurrentAgentID())
		assert.Equal(t, "thread_1", f.orch.CurrentThreadID())
		assert.Equal(t, 1, f.gateway.threadsCreated())

		event := f.sink.waitFor(t, func(e domain.SessionEvent) bool {
			_, ok := e.(domain.ActiveModeStartedEvent)
			return ok
		})
		started := event.(domain.ActiveModeStartedEvent)
		assert.Equal(t, "asst_1", started.AgentID)
		assert.Equal(t, "thread_1", started.ThreadID)
	})

	t.Run("thread creation failure stays inactive", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.gateway.createThreadErr = domain.ErrTransport

		err := f.orch.EnterActiveMode(ctx, "asst_1")
		require.Error(t, err)
		assert.False(t, f.orch.IsActive())
		assert.Equal(t, 1, f.sink.count(isErrorEvent))
	})

	t.Run("re-entry with another agent ends the first session", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_2"))

		assert.Equal(t, "asst_2", f.orch.CurrentAgentID())
		assert.Equal(t, 1, f.sink.count(func(e domain.SessionEvent) bool {
			_, ok := e.(domain.ActiveModeEndedEvent)
			return ok
		}))
	})
}

func TestOrchestratorExitActiveMode(t *testing.T) {
	ctx := context.Background()

	t.Run("exit is idempotent", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		f.orch.ExitActiveMode()
		f.orch.ExitActiveMode()

		assert.False(t, f.orch.IsActive())
		assert.Equal(t, 1, f.sink.count(func(e domain.SessionEvent) bool {
			_, ok := e.(domain.ActiveModeEndedEvent)
			return ok
		}))
	})

	t.Run("exit while inactive emits nothing", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		f.orch.ExitActiveMode()
		assert.Empty(t, f.sink.snapshot())
	})

	t.Run("exit stops speech playback", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		f.orch.ExitActiveMode()

		assert.Equal(t, 1, f.player.stopped)
	})
}

func TestOrchestratorSendAudio(t *testing.T) {
	ctx := context.Background()

	t.Run("requires active mode", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		err := f.orch.SendAudio(ctx)
		assert.ErrorIs(t, err, domain.ErrActiveModeRequired)
	})

	t.Run("full exchange emits response and updates metadata", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.gateway.reply = "All good."

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		f.recorder.complete([]byte("pcm"), 2*time.Second)

		event := f.sink.waitFor(t, isAssistantResponse)
		assert.Equal(t, "All good.", event.(domain.AssistantResponseEvent).Text)

		require.Eventually(t, func() bool { return !f.orch.Busy() }, time.Second, 5*time.Millisecond)

		rec, err := f.store.LoadThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.Equal(t, 1, rec.MessageCount)
	})

	t.Run("second exchange is rejected while one is in flight", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		err := f.orch.SendAudio(ctx)
		assert.ErrorIs(t, err, domain.ErrOperationInProgress)

		err = f.orch.SendPhoto(ctx, "")
		assert.ErrorIs(t, err, domain.ErrOperationInProgress)

		// only the first pipeline ever started recording
		assert.Equal(t, 1, f.recorder.started)

		f.recorder.complete([]byte("pcm"), 2*time.Second)
		f.sink.waitFor(t, isAssistantResponse)
		require.Eventually(t, func() bool { return !f.orch.Busy() }, time.Second, 5*time.Millisecond)

		// slot is free again
		require.NoError(t, f.orch.SendAudio(ctx))
	})

	t.Run("pipeline error frees the slot", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.gateway.transcribeErr = domain.ErrTransport

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		f.recorder.complete([]byte("pcm"), 2*time.Second)
		f.sink.waitFor(t, isErrorEvent)

		require.Eventually(t, func() bool { return !f.orch.Busy() }, time.Second, 5*time.Millisecond)
		assert.True(t, f.orch.IsActive())
	})
}

func TestOrchestratorSendPhoto(t *testing.T) {
	ctx := context.Background()

	f := newOrchestratorFixture(t)
	f.gateway.analysis = "a whiteboard full of diagrams"
	f.gateway.reply = "Looks like a planning session."

	require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
	require.NoError(t, f.orch.SendPhoto(ctx, "what is on the board"))

	event := f.sink.waitFor(t, isAssistantResponse)
	assert.Equal(t, "Looks like a planning session.", event.(domain.AssistantResponseEvent).Text)

	posted := f.gateway.postedMessages()
	require.Len(t, posted, 1)
	assert.Equal(t, "what is on the board\n\n[Photo] a whiteboard full of diagrams", posted[0])
}

func TestOrchestratorCreateNewThread(t *testing.T) {
	ctx := context.Background()

	t.Run("requires active mode", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		err := f.orch.CreateNewThread(ctx)
		assert.ErrorIs(t, err, domain.ErrActiveModeRequired)
	})

	t.Run("replaces the session thread", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		first := f.orch.CurrentThreadID()

		require.NoError(t, f.orch.CreateNewThread(ctx))
		second := f.orch.CurrentThreadID()
		assert.NotEqual(t, first, second)

		event := f.sink.waitFor(t, func(e domain.SessionEvent) bool {
			_, ok := e.(domain.ThreadCreatedEvent)
			return ok
		})
		assert.Equal(t, second, event.(domain.ThreadCreatedEvent).ThreadID)

		// persisted mapping follows the swap
		rec, err := f.store.LoadThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.Equal(t, second, rec.ThreadID)
	})

	t.Run("next exchange posts to the replacement thread", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		old := f.orch.CurrentThreadID()

		require.NoError(t, f.orch.CreateNewThread(ctx))
		replacement := f.orch.CurrentThreadID()

		require.NoError(t, f.orch.SendAudio(ctx))
		f.recorder.complete([]byte("pcm"), 2*time.Second)
		f.sink.waitFor(t, isAssistantResponse)

		threads := f.gateway.postedThreads()
		require.Len(t, threads, 1)
		assert.Equal(t, replacement, threads[0])
		assert.NotContains(t, threads, old)
	})

	t.Run("rejected while an exchange is in flight", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		err := f.orch.CreateNewThread(ctx)
		assert.ErrorIs(t, err, domain.ErrOperationInProgress)
	})
}

func TestOrchestratorAudioResponseToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("double toggle restores the original state", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		initial := f.orch.AudioResponseEnabled()
		require.NoError(t, f.orch.ToggleAudioResponse(ctx))
		assert.Equal(t, !initial, f.orch.AudioResponseEnabled())
		require.NoError(t, f.orch.ToggleAudioResponse(ctx))
		assert.Equal(t, initial, f.orch.AudioResponseEnabled())
	})

	t.Run("preference survives a restart", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		require.NoError(t, f.orch.ToggleAudioResponse(ctx))
		require.True(t, f.orch.AudioResponseEnabled())

		cfg := testConfig()
		discard := domain.EventSinkFunc(func(domain.SessionEvent) {})
		restarted := NewOrchestrator(cfg, f.gateway, NewThreadManager(f.gateway, f.store, 24*time.Hour),
			f.store, NewConfigCredentialStore(cfg), f.recorder, &fakeCamera{}, f.player, discard)
		assert.True(t, restarted.AudioResponseEnabled())
	})

	t.Run("enabled toggle speaks the reply, text always first", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.gateway.reply = "Spoken back."

		require.NoError(t, f.orch.ToggleAudioResponse(ctx))
		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		f.recorder.complete([]byte("pcm"), 2*time.Second)

		f.sink.waitFor(t, isAssistantResponse)
		require.Eventually(t, func() bool { return f.player.playCount() == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("speech failure never retracts the text", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.gateway.reply = "Still visible."
		f.gateway.speechErr = domain.ErrTransport

		require.NoError(t, f.orch.ToggleAudioResponse(ctx))
		require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
		require.NoError(t, f.orch.SendAudio(ctx))

		f.recorder.complete([]byte("pcm"), 2*time.Second)

		event := f.sink.waitFor(t, isAssistantResponse)
		assert.Equal(t, "Still visible.", event.(domain.AssistantResponseEvent).Text)

		f.sink.waitFor(t, isErrorEvent)
		assert.Equal(t, 1, f.sink.count(isAssistantResponse))
	})
}

func TestOrchestratorStopAudioCapture(t *testing.T) {
	ctx := context.Background()

	f := newOrchestratorFixture(t)
	f.recorder.pcm = []byte("partial")
	f.recorder.duration = 2 * time.Second

	require.NoError(t, f.orch.EnterActiveMode(ctx, "asst_1"))
	require.NoError(t, f.orch.SendAudio(ctx))

	f.orch.StopAudioCapture()

	f.sink.waitFor(t, isAssistantResponse)
}
