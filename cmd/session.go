package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	cobra "github.com/spf13/cobra"

	container "github.com/learitecnico/learion-glass-sub000/internal/container"
	ui "github.com/learitecnico/learion-glass-sub000/internal/ui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive assistant session",
	Long: `Starts the interactive menu: pick an agent, open a live conversation
and ask by voice or photo. Typed voice commands take the same paths a
recognized phrase would on the device.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	events := ui.NewEventChannel()

	services, err := container.NewServiceContainer(cfg, cfgViper, cfgPath, events)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() { _ = services.Close() }()

	model := ui.NewSessionModel(services.GetMachine(), services.GetOrchestrator(), events.Events())

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("session ended with error: %w", err)
	}

	return nil
}
