package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// fakeSession records orchestration calls and can be scripted to fail
type fakeSession struct {
	active        bool
	busy          bool
	audioResponse bool

	enterErr error
	sendErr  error

	entered    []string
	exits      int
	audioSends int
	photoSends int
	stops      int
	newThreads int
	toggles    int
}

var _ SessionController = (*fakeSession)(nil)

func (s *fakeSession) EnterActiveMode(ctx context.Context, agentID string) error {
	if s.enterErr != nil {
		return s.enterErr
	}
	s.active = true
	s.entered = append(s.entered, agentID)
	return nil
}

func (s *fakeSession) ExitActiveMode() {
	if s.active {
		s.exits++
	}
	s.active = false
}

func (s *fakeSession) SendAudio(ctx context.Context) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.audioSends++
	return nil
}

func (s *fakeSession) StopAudioCapture() { s.stops++ }

func (s *fakeSession) SendPhoto(ctx context.Context, prompt string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.photoSends++
	return nil
}

func (s *fakeSession) CreateNewThread(ctx context.Context) error {
	s.newThreads++
	return nil
}

func (s *fakeSession) ToggleAudioResponse(ctx context.Context) error {
	s.toggles++
	s.audioResponse = !s.audioResponse
	return nil
}

func (s *fakeSession) IsActive() bool             { return s.active }
func (s *fakeSession) Busy() bool                 { return s.busy }
func (s *fakeSession) AudioResponseEnabled() bool { return s.audioResponse }

func testAgents() []config.AgentConfig {
	return []config.AgentConfig{
		{ID: "asst_general", Name: "Assistant"},
		{ID: "asst_translator", Name: "Translator"},
	}
}

// fakeThreads satisfies the thread manager dependency for clear-history
type fakeThreads struct {
	domain.ThreadManager
	cleared []string
}

func (f *fakeThreads) ClearActiveThread(ctx context.Context, agentID string) error {
	f.cleared = append(f.cleared, agentID)
	return nil
}

func newTestMachine(session SessionController) (*Machine, *fakeThreads) {
	threads := &fakeThreads{}
	return NewMachine(testAgents(), threads, session), threads
}

func dispatchAll(t *testing.T, m *Machine, actions ...Action) {
	t.Helper()
	for _, action := range actions {
		_, err := m.Dispatch(context.Background(), action)
		require.NoError(t, err)
	}
}

func TestMachineNavigation(t *testing.T) {
	ctx := context.Background()

	t.Run("menu path down to the active menu", func(t *testing.T) {
		session := &fakeSession{}
		m, _ := newTestMachine(session)

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
			Action{Type: ActionStartSession},
		)

		assert.Equal(t, StateAgentActiveMenu, m.Current())
		assert.Equal(t, []string{"asst_general"}, session.entered)
	})

	t.Run("failed session start keeps the agent menu", func(t *testing.T) {
		session := &fakeSession{enterErr: domain.ErrNoCredential}
		m, _ := newTestMachine(session)

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
		)

		_, err := m.Dispatch(ctx, Action{Type: ActionStartSession})
		require.ErrorIs(t, err, domain.ErrNoCredential)
		assert.Equal(t, StateAgentMenu, m.Current())
	})

	t.Run("unknown agent is rejected", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		dispatchAll(t, m, Action{Type: ActionOpenAgentList})

		_, err := m.Dispatch(ctx, Action{Type: ActionSelectAgent, Target: "asst_ghost"})
		require.Error(t, err)
		assert.Equal(t, StateAgentList, m.Current())
	})

	t.Run("active-only actions rejected elsewhere", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		for _, action := range []ActionType{ActionSendAudio, ActionSendPhoto, ActionNewThread} {
			_, err := m.Dispatch(ctx, Action{Type: action})
			assert.ErrorIs(t, err, domain.ErrActiveModeRequired, "action %d", action)
		}
	})

	t.Run("back pops one level", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
			Action{Type: ActionBack},
		)
		assert.Equal(t, StateAgentList, m.Current())

		dispatchAll(t, m, Action{Type: ActionBack})
		assert.Equal(t, StateMain, m.Current())
	})

	t.Run("back from the active menu ends the session", func(t *testing.T) {
		session := &fakeSession{}
		m, _ := newTestMachine(session)

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
			Action{Type: ActionStartSession},
			Action{Type: ActionBack},
		)

		assert.Equal(t, StateAgentMenu, m.Current())
		assert.Equal(t, 1, session.exits)
	})

	t.Run("back at the root requests exit", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		exit, err := m.Dispatch(ctx, Action{Type: ActionBack})
		require.NoError(t, err)
		assert.True(t, exit)
	})

	t.Run("exit action ends any session", func(t *testing.T) {
		session := &fakeSession{}
		m, _ := newTestMachine(session)

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
			Action{Type: ActionStartSession},
		)

		exit, err := m.Dispatch(ctx, Action{Type: ActionExit})
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Equal(t, 1, session.exits)
	})

	t.Run("clear history from the agent menu", func(t *testing.T) {
		m, threads := newTestMachine(&fakeSession{})

		dispatchAll(t, m,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_translator"},
			Action{Type: ActionClearThread},
		)

		assert.Equal(t, []string{"asst_translator"}, threads.cleared)
	})
}

func TestMachineMenuRendering(t *testing.T) {
	t.Run("agent list mirrors configuration", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})
		dispatchAll(t, m, Action{Type: ActionOpenAgentList})

		menu := m.Menu()
		require.Len(t, menu.Items, 3)
		assert.Equal(t, "Assistant", menu.Items[0].Label)
		assert.Equal(t, "Translator", menu.Items[1].Label)
		assert.Equal(t, "Back", menu.Items[2].Label)
	})

	t.Run("toggle label reflects live state", func(t *testing.T) {
		session := &fakeSession{}
		m, _ := newTestMachine(session)
		dispatchAll(t, m, Action{Type: ActionOpenSettings})

		menu := m.Menu()
		assert.Equal(t, "Voice replies: off", menu.Items[0].Label)

		dispatchAll(t, m, Action{Type: ActionToggleAudioResponse})

		menu = m.Menu()
		assert.Equal(t, "Voice replies: on", menu.Items[0].Label)
	})
}

func TestVoiceCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("token sequence matches menu navigation", func(t *testing.T) {
		viaMenu := &fakeSession{}
		menuMachine, _ := newTestMachine(viaMenu)
		dispatchAll(t, menuMachine,
			Action{Type: ActionOpenAgentList},
			Action{Type: ActionSelectAgent, Target: "asst_general"},
			Action{Type: ActionStartSession},
			Action{Type: ActionSendAudio},
		)

		viaVoice := &fakeSession{}
		voiceMachine, _ := newTestMachine(viaVoice)
		for _, token := range []string{"agents", "Assistant", "start", "ask"} {
			action, ok := voiceMachine.ResolveVoiceCommand(token)
			require.True(t, ok, "token %q", token)
			_, err := voiceMachine.Dispatch(ctx, action)
			require.NoError(t, err)
		}

		assert.Equal(t, menuMachine.Current(), voiceMachine.Current())
		assert.Equal(t, viaMenu.entered, viaVoice.entered)
		assert.Equal(t, viaMenu.audioSends, viaVoice.audioSends)
	})

	t.Run("agent names resolve only inside the agent list", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		_, ok := m.ResolveVoiceCommand("Translator")
		assert.False(t, ok)

		dispatchAll(t, m, Action{Type: ActionOpenAgentList})

		action, ok := m.ResolveVoiceCommand("translator")
		require.True(t, ok)
		assert.Equal(t, ActionSelectAgent, action.Type)
		assert.Equal(t, "asst_translator", action.Target)
	})

	t.Run("unknown tokens are not resolved", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		_, ok := m.ResolveVoiceCommand("make coffee")
		assert.False(t, ok)
	})

	t.Run("tokens are case and whitespace tolerant", func(t *testing.T) {
		m, _ := newTestMachine(&fakeSession{})

		action, ok := m.ResolveVoiceCommand("  Take Photo ")
		require.True(t, ok)
		assert.Equal(t, ActionSendPhoto, action.Type)
	})
}
