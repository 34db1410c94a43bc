package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/navigation"
)

const maxTranscriptLines = 200

// sessionEventMsg wraps one orchestrator event for the bubbletea loop
type sessionEventMsg struct {
	event domain.SessionEvent
}

// dispatchDoneMsg reports the outcome of one dispatched action
type dispatchDoneMsg struct {
	exit bool
	err  error
}

// SessionModel is the interactive session view. It renders the navigation
// machine's current menu, streams session events into a transcript and feeds
// both key selections and typed voice tokens through the machine's single
// dispatch path.
type SessionModel struct {
	machine *navigation.Machine
	session navigation.SessionController
	events  <-chan domain.SessionEvent
	theme   Theme

	selected   int
	transcript []string
	errLine    string

	spinner   spinner.Model
	voice     textinput.Model
	voiceMode bool

	width  int
	height int
	done   bool
}

// NewSessionModel creates the session view bound to a machine and its event
// stream
func NewSessionModel(machine *navigation.Machine, session navigation.SessionController, events <-chan domain.SessionEvent) *SessionModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vi := textinput.New()
	vi.Placeholder = "voice command"
	vi.CharLimit = 64

	return &SessionModel{
		machine: machine,
		session: session,
		events:  events,
		theme:   DefaultTheme(),
		spinner: sp,
		voice:   vi,
		width:   80,
		height:  24,
	}
}

func (m *SessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the orchestrator event stream and converts the next
// event into a bubbletea message
func (m *SessionModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: event}
	}
}

// dispatch runs one action through the machine off the UI goroutine
func (m *SessionModel) dispatch(action navigation.Action) tea.Cmd {
	return func() tea.Msg {
		exit, err := m.machine.Dispatch(context.Background(), action)
		return dispatchDoneMsg{exit: exit, err: err}
	}
}

func (m *SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionEventMsg:
		m.appendEvent(msg.event)
		return m, m.waitForEvent()

	case dispatchDoneMsg:
		if msg.err != nil {
			m.errLine = msg.err.Error()
		}
		if msg.exit {
			m.done = true
			return m, tea.Quit
		}
		m.clampSelection()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *SessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.voiceMode {
		return m.handleVoiceKey(msg)
	}

	menu := m.machine.Menu()

	switch msg.String() {
	case "ctrl+c":
		m.done = true
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(menu.Items)-1 {
			m.selected++
		}
		return m, nil

	case "enter":
		m.errLine = ""
		if m.selected < len(menu.Items) {
			return m, m.dispatch(menu.Items[m.selected].Action)
		}
		return m, nil

	case "esc":
		m.errLine = ""
		return m, m.dispatch(navigation.Action{Type: navigation.ActionBack})

	case "s":
		return m, m.dispatch(navigation.Action{Type: navigation.ActionStopAudio})

	case "v", "/":
		m.voiceMode = true
		m.voice.SetValue("")
		return m, m.voice.Focus()
	}

	return m, nil
}

// handleVoiceKey routes typed voice tokens through the same resolution a
// recognized phrase would take
func (m *SessionModel) handleVoiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.voiceMode = false
		m.voice.Blur()
		return m, nil

	case "enter":
		token := m.voice.Value()
		m.voiceMode = false
		m.voice.Blur()
		m.errLine = ""

		action, ok := m.machine.ResolveVoiceCommand(token)
		if !ok {
			m.errLine = fmt.Sprintf("unrecognized command: %q", token)
			return m, nil
		}
		return m, m.dispatch(action)
	}

	var cmd tea.Cmd
	m.voice, cmd = m.voice.Update(msg)
	return m, cmd
}

func (m *SessionModel) appendEvent(event domain.SessionEvent) {
	var line string
	switch e := event.(type) {
	case domain.StatusUpdateEvent:
		line = m.theme.Status.Render(e.Text)
	case domain.AssistantResponseEvent:
		line = m.theme.Assistant.Render("assistant: " + e.Text)
	case domain.ErrorEvent:
		line = m.theme.Error.Render("error: " + e.Err.Error())
	case domain.ActiveModeStartedEvent:
		line = m.theme.Status.Render(fmt.Sprintf("session started (thread %s)", e.ThreadID))
	case domain.ActiveModeEndedEvent:
		line = m.theme.Status.Render("session ended")
	case domain.ThreadCreatedEvent:
		line = m.theme.Status.Render(fmt.Sprintf("new conversation (thread %s)", e.ThreadID))
	case domain.AudioToggledEvent:
		if e.Enabled {
			line = m.theme.Status.Render("voice replies on")
		} else {
			line = m.theme.Status.Render("voice replies off")
		}
	default:
		return
	}

	m.transcript = append(m.transcript, line)
	if len(m.transcript) > maxTranscriptLines {
		m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
	}
}

// clampSelection keeps the cursor inside the freshly rendered menu after a
// state change
func (m *SessionModel) clampSelection() {
	menu := m.machine.Menu()
	if m.selected >= len(menu.Items) {
		m.selected = 0
	}
}

func (m *SessionModel) View() string {
	if m.done {
		return ""
	}

	menu := m.machine.Menu()

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(menu.Title))
	b.WriteString("\n\n")

	for i, item := range menu.Items {
		if i == m.selected {
			b.WriteString(m.theme.Cursor.Render("> "))
			b.WriteString(m.theme.Selected.Render(item.Label))
		} else {
			b.WriteString("  ")
			b.WriteString(m.theme.Item.Render(item.Label))
		}
		b.WriteString("\n")
	}

	if m.session.Busy() {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Status.Render(" working..."))
		b.WriteString("\n")
	}

	if len(m.transcript) > 0 {
		b.WriteString("\n")
		visible := m.transcript
		if max := m.height - len(menu.Items) - 8; max > 0 && len(visible) > max {
			visible = visible[len(visible)-max:]
		}
		b.WriteString(strings.Join(visible, "\n"))
		b.WriteString("\n")
	}

	if m.errLine != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Error.Render(m.errLine))
		b.WriteString("\n")
	}

	if m.voiceMode {
		b.WriteString("\n")
		b.WriteString(m.voice.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("↑/↓ move · enter select · esc back · v voice · s stop capture · ctrl+c quit"))
	b.WriteString("\n")

	return b.String()
}
