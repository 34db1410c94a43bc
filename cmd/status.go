package cmd

import (
	"fmt"

	cobra "github.com/spf13/cobra"

	storage "github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
	services "github.com/learitecnico/learion-glass-sub000/internal/services"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the client's readiness",
	Long: `Display the current client status including:
- Gateway endpoint and credential presence
- Thread storage backend health
- Configured agents`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Gateway: %s\n", cfg.Gateway.URL)

		credentials := services.NewConfigCredentialStore(cfg)
		if _, ok := credentials.GetCredential(); ok {
			fmt.Println("Credential: configured")
		} else {
			fmt.Println("Credential: missing (set gateway.api_key or GLASS_API_KEY)")
		}

		store, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			fmt.Printf("Storage (%s): failed to open (%v)\n", cfg.Storage.Type, err)
		} else {
			defer func() { _ = store.Close() }()
			if err := store.Health(cmd.Context()); err != nil {
				fmt.Printf("Storage (%s): unhealthy (%v)\n", cfg.Storage.Type, err)
			} else {
				fmt.Printf("Storage (%s): healthy\n", cfg.Storage.Type)
			}
		}

		fmt.Printf("Agents: %d configured\n", len(cfg.Agents))
		for _, agent := range cfg.Agents {
			fmt.Printf("  - %s (%s)\n", agent.Name, agent.ID)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
