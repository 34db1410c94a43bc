package navigation

import (
	"context"
	"fmt"
	"sync"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// SessionController is the orchestration surface the menu machine drives
type SessionController interface {
	EnterActiveMode(ctx context.Context, agentID string) error
	ExitActiveMode()
	SendAudio(ctx context.Context) error
	StopAudioCapture()
	SendPhoto(ctx context.Context, prompt string) error
	CreateNewThread(ctx context.Context) error
	ToggleAudioResponse(ctx context.Context) error
	IsActive() bool
	Busy() bool
	AudioResponseEnabled() bool
}

// Machine is the stack-based hierarchical menu state machine. Entering a
// child state pushes the parent; Back pops one level; Back at the root is an
// exit request. Navigation stays consistent with orchestration state: the
// active-mode menu is entered only after active mode actually started, and
// leaving it ends the session.
type Machine struct {
	mu           sync.Mutex
	current      State
	stack        []State
	agents       []config.AgentConfig
	currentAgent config.AgentConfig
	threads      domain.ThreadManager
	session      SessionController
}

// NewMachine creates a menu machine rooted at the main menu
func NewMachine(agents []config.AgentConfig, threads domain.ThreadManager, session SessionController) *Machine {
	return &Machine{
		current: StateMain,
		agents:  agents,
		threads: threads,
		session: session,
	}
}

// Current returns the machine's current state
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentAgent returns the agent the menu is scoped to, when any
func (m *Machine) CurrentAgent() config.AgentConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentAgent
}

// Dispatch resolves one action against the current state. It is the single
// code path for both menu selection and voice-command tokens. The returned
// exit flag is true when the action asks to leave the application.
func (m *Machine) Dispatch(ctx context.Context, action Action) (exit bool, err error) {
	logger.Debug("Dispatching action",
		"action", action.Type,
		"target", action.Target,
		"state", m.Current().String())

	switch action.Type {
	case ActionOpenAgentList:
		return false, m.transition(StateMain, StateAgentList)

	case ActionOpenSettings:
		return false, m.transition(StateMain, StateSettings)

	case ActionSelectAgent:
		return false, m.selectAgent(action.Target)

	case ActionStartSession:
		return false, m.startSession(ctx)

	case ActionEndSession:
		return false, m.endSession()

	case ActionSendAudio:
		if err := m.requireActiveMenu(); err != nil {
			return false, err
		}
		return false, m.session.SendAudio(ctx)

	case ActionStopAudio:
		m.session.StopAudioCapture()
		return false, nil

	case ActionSendPhoto:
		if err := m.requireActiveMenu(); err != nil {
			return false, err
		}
		return false, m.session.SendPhoto(ctx, "")

	case ActionNewThread:
		if err := m.requireActiveMenu(); err != nil {
			return false, err
		}
		return false, m.session.CreateNewThread(ctx)

	case ActionClearThread:
		return false, m.clearThread(ctx)

	case ActionToggleAudioResponse:
		return false, m.session.ToggleAudioResponse(ctx)

	case ActionBack:
		return m.back()

	case ActionExit:
		m.session.ExitActiveMode()
		return true, nil

	case ActionNone:
		return false, nil

	default:
		return false, fmt.Errorf("unknown action %d", action.Type)
	}
}

// requireActiveMenu gates actions that are only legal inside the active-mode
// menu
func (m *Machine) requireActiveMenu() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != StateAgentActiveMenu {
		return domain.ErrActiveModeRequired
	}
	return nil
}

// transition moves from an expected state to a child state
func (m *Machine) transition(from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != from {
		return fmt.Errorf("action not available in %s", m.current)
	}

	m.stack = append(m.stack, m.current)
	m.current = to
	return nil
}

func (m *Machine) selectAgent(agentID string) error {
	m.mu.Lock()
	if m.current != StateAgentList {
		m.mu.Unlock()
		return fmt.Errorf("action not available in %s", m.current)
	}

	for _, a := range m.agents {
		if a.ID == agentID {
			m.currentAgent = a
			m.stack = append(m.stack, m.current)
			m.current = StateAgentMenu
			m.mu.Unlock()
			return nil
		}
	}

	m.mu.Unlock()
	return fmt.Errorf("unknown agent: %s", agentID)
}

// startSession enters active mode; the menu only advances when the session
// actually started
func (m *Machine) startSession(ctx context.Context) error {
	m.mu.Lock()
	if m.current != StateAgentMenu {
		m.mu.Unlock()
		return fmt.Errorf("action not available in %s", m.current)
	}
	agentID := m.currentAgent.ID
	m.mu.Unlock()

	if err := m.session.EnterActiveMode(ctx, agentID); err != nil {
		return err
	}

	return m.transition(StateAgentMenu, StateAgentActiveMenu)
}

func (m *Machine) endSession() error {
	m.mu.Lock()
	if m.current != StateAgentActiveMenu {
		m.mu.Unlock()
		return fmt.Errorf("action not available in %s", m.current)
	}
	m.mu.Unlock()

	m.session.ExitActiveMode()
	m.pop()
	return nil
}

func (m *Machine) clearThread(ctx context.Context) error {
	m.mu.Lock()
	if m.current != StateAgentMenu {
		m.mu.Unlock()
		return fmt.Errorf("action not available in %s", m.current)
	}
	agentID := m.currentAgent.ID
	m.mu.Unlock()

	return m.threads.ClearActiveThread(ctx, agentID)
}

// back pops one level; leaving the active-mode menu ends the session so menu
// position and orchestration state cannot drift apart. At the root, back is
// an exit request.
func (m *Machine) back() (exit bool, err error) {
	m.mu.Lock()
	atRoot := len(m.stack) == 0
	leavingActive := m.current == StateAgentActiveMenu
	m.mu.Unlock()

	if atRoot {
		m.session.ExitActiveMode()
		return true, nil
	}

	if leavingActive {
		m.session.ExitActiveMode()
	}

	m.pop()
	return false, nil
}

func (m *Machine) pop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.stack) == 0 {
		return
	}
	m.current = m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
}
