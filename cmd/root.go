package cmd

import (
	"fmt"
	"os"

	cobra "github.com/spf13/cobra"
	viper "github.com/spf13/viper"

	config "github.com/learitecnico/learion-glass-sub000/config"
	logger "github.com/learitecnico/learion-glass-sub000/internal/logger"
)

var (
	cfg        *config.Config
	cfgViper   *viper.Viper
	cfgPath    string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "glass",
	Short: "Voice and photo assistant client for head-worn displays",
	Long: `Glass is the companion client for head-worn assistant hardware. It
manages agent conversations against a remote gateway: voice questions,
photo questions, spoken replies and a hands-free menu tree.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use 'glass session' to start an interactive session or --help to see available commands.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")

	cfgPath = configFlag
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}

	var err error
	cfg, cfgViper, err = config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	logger.Init(verbose)
}
