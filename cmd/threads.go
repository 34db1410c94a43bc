package cmd

import (
	"errors"
	"fmt"
	"time"

	cobra "github.com/spf13/cobra"

	domain "github.com/learitecnico/learion-glass-sub000/internal/domain"
	storage "github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Manage persisted conversation threads",
}

var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted threads per agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		records, err := store.ListThreads(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list threads: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No threads stored.")
			return nil
		}

		ttl := time.Duration(cfg.Threads.TTLHours) * time.Hour
		now := time.Now()

		fmt.Printf("%-24s %-32s %-8s %-10s %s\n", "AGENT", "THREAD", "MSGS", "STATE", "CREATED")
		for _, rec := range records {
			state := "active"
			if rec.Expired(now, ttl) {
				state = "expired"
			}
			fmt.Printf("%-24s %-32s %-8d %-10s %s\n",
				rec.AgentID, rec.ThreadID, rec.MessageCount, state,
				rec.CreatedAt.Format(time.RFC3339))
		}

		return nil
	},
}

var threadsClearCmd = &cobra.Command{
	Use:   "clear <agent-id>",
	Short: "Forget the persisted thread for an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.DeleteThread(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, domain.ErrThreadNotFound) {
				fmt.Printf("No thread stored for agent %s.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to clear thread: %w", err)
		}

		fmt.Printf("Cleared thread for agent %s. The next conversation starts fresh.\n", args[0])
		return nil
	},
}

var threadsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove threads older than the configured TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		ttl := time.Duration(cfg.Threads.TTLHours) * time.Hour
		removed, err := store.DeleteExpired(cmd.Context(), time.Now().Add(-ttl))
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}

		fmt.Printf("Removed %d expired thread(s).\n", removed)
		return nil
	},
}

func init() {
	threadsCmd.AddCommand(threadsListCmd)
	threadsCmd.AddCommand(threadsClearCmd)
	threadsCmd.AddCommand(threadsCleanupCmd)
	rootCmd.AddCommand(threadsCmd)
}
