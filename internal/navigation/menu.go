package navigation

// MenuItem is one selectable entry of a rendered menu
type MenuItem struct {
	Label  string
	Action Action
}

// Menu is the renderable resource for one navigation state
type Menu struct {
	Title string
	Items []MenuItem
}

// Menu renders the menu for the current state. Dynamic labels (the
// audio-response toggle, the agent name) are recomputed from live state on
// every call, never cached.
func (m *Machine) Menu() Menu {
	switch m.Current() {
	case StateMain:
		return Menu{
			Title: "Learion Glass",
			Items: []MenuItem{
				{Label: "Agents", Action: Action{Type: ActionOpenAgentList}},
				{Label: "Settings", Action: Action{Type: ActionOpenSettings}},
				{Label: "Exit", Action: Action{Type: ActionExit}},
			},
		}

	case StateAgentList:
		menu := Menu{Title: "Agents"}
		for _, a := range m.agents {
			menu.Items = append(menu.Items, MenuItem{
				Label:  a.Name,
				Action: Action{Type: ActionSelectAgent, Target: a.ID},
			})
		}
		menu.Items = append(menu.Items, MenuItem{Label: "Back", Action: Action{Type: ActionBack}})
		return menu

	case StateAgentMenu:
		return Menu{
			Title: m.CurrentAgent().Name,
			Items: []MenuItem{
				{Label: "Start conversation", Action: Action{Type: ActionStartSession}},
				{Label: "Clear history", Action: Action{Type: ActionClearThread}},
				{Label: "Back", Action: Action{Type: ActionBack}},
			},
		}

	case StateAgentActiveMenu:
		return Menu{
			Title: m.CurrentAgent().Name + " (live)",
			Items: []MenuItem{
				{Label: "Ask by voice", Action: Action{Type: ActionSendAudio}},
				{Label: "Send photo", Action: Action{Type: ActionSendPhoto}},
				{Label: "New conversation", Action: Action{Type: ActionNewThread}},
				{Label: m.audioToggleLabel(), Action: Action{Type: ActionToggleAudioResponse}},
				{Label: "End conversation", Action: Action{Type: ActionEndSession}},
			},
		}

	case StateSettings:
		return Menu{
			Title: "Settings",
			Items: []MenuItem{
				{Label: m.audioToggleLabel(), Action: Action{Type: ActionToggleAudioResponse}},
				{Label: "Back", Action: Action{Type: ActionBack}},
			},
		}

	default:
		return Menu{Title: "Learion Glass"}
	}
}

func (m *Machine) audioToggleLabel() string {
	if m.session.AudioResponseEnabled() {
		return "Voice replies: on"
	}
	return "Voice replies: off"
}
