package cmd

import (
	"fmt"

	cobra "github.com/spf13/cobra"

	services "github.com/learitecnico/learion-glass-sub000/internal/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write client configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a configuration value using dot notation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := services.NewConfigService(cfgViper, cfg, cfgPath)

		value := svc.GetValue(args[0])
		if value == nil {
			return fmt.Errorf("unknown config key: %s", args[0])
		}

		fmt.Printf("%v\n", value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value and save it to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := services.NewConfigService(cfgViper, cfg, cfgPath)

		if err := svc.SetValue(args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}

		fmt.Printf("Wrote config to %s\n", cfgPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
