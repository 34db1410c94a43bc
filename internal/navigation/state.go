package navigation

// State identifies one node of the hierarchical menu tree
type State int

const (
	StateMain State = iota
	StateAgentList
	StateAgentMenu
	StateAgentActiveMenu
	StateSettings
)

func (s State) String() string {
	switch s {
	case StateMain:
		return "Main"
	case StateAgentList:
		return "AgentList"
	case StateAgentMenu:
		return "AgentMenu"
	case StateAgentActiveMenu:
		return "AgentActiveMenu"
	case StateSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// ActionType enumerates every user-triggerable action. Menu selection and
// voice-command tokens resolve to the same actions so behavior cannot diverge
// between input origins.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionOpenAgentList
	ActionOpenSettings
	ActionSelectAgent
	ActionStartSession
	ActionEndSession
	ActionSendAudio
	ActionStopAudio
	ActionSendPhoto
	ActionNewThread
	ActionClearThread
	ActionToggleAudioResponse
	ActionBack
	ActionExit
)

// Action is one dispatched user intent. Target carries the agent id for
// ActionSelectAgent.
type Action struct {
	Type   ActionType
	Target string
}
