package navigation

import "strings"

// voiceCommands maps recognized phrase tokens onto actions. Phrase-to-token
// recognition itself happens upstream; the machine only sees discrete tokens.
var voiceCommands = map[string]ActionType{
	"agents":           ActionOpenAgentList,
	"settings":         ActionOpenSettings,
	"start":            ActionStartSession,
	"ask":              ActionSendAudio,
	"send audio":       ActionSendAudio,
	"stop":             ActionStopAudio,
	"take photo":       ActionSendPhoto,
	"send photo":       ActionSendPhoto,
	"new conversation": ActionNewThread,
	"clear history":    ActionClearThread,
	"toggle voice":     ActionToggleAudioResponse,
	"end":              ActionEndSession,
	"back":             ActionBack,
	"exit":             ActionExit,
}

// ResolveVoiceCommand maps a voice token onto the same Action a menu
// selection would produce. Inside the agent list, an agent's name selects it.
func (m *Machine) ResolveVoiceCommand(token string) (Action, bool) {
	token = strings.ToLower(strings.TrimSpace(token))

	if actionType, ok := voiceCommands[token]; ok {
		return Action{Type: actionType}, true
	}

	if m.Current() == StateAgentList {
		for _, a := range m.agents {
			if strings.EqualFold(a.Name, token) {
				return Action{Type: ActionSelectAgent, Target: a.ID}, true
			}
		}
	}

	return Action{}, false
}
