package config

// AgentConfig represents a single remote assistant persona available to the
// wearer. The registry is static for the lifetime of the process.
type AgentConfig struct {
	ID         string `yaml:"id" mapstructure:"id"`
	Name       string `yaml:"name" mapstructure:"name"`
	Menu       string `yaml:"menu" mapstructure:"menu"`
	ActiveMenu string `yaml:"active_menu" mapstructure:"active_menu"`
}

// DefaultAgents returns the built-in agent registry
func DefaultAgents() []AgentConfig {
	return []AgentConfig{
		{
			ID:         "asst_general",
			Name:       "General Assistant",
			Menu:       "agent_menu",
			ActiveMenu: "agent_active_menu",
		},
		{
			ID:         "asst_translator",
			Name:       "Live Translator",
			Menu:       "agent_menu",
			ActiveMenu: "agent_active_menu",
		},
	}
}

// FindAgent looks up an agent by id in the configured registry
func (c *Config) FindAgent(id string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentConfig{}, false
}
