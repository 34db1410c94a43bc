package services

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/learitecnico/learion-glass-sub000/config"
)

// ConfigService handles configuration management and reloading
type ConfigService struct {
	viper  *viper.Viper
	config *config.Config
	path   string
}

// NewConfigService creates a new config service bound to the given file path
func NewConfigService(v *viper.Viper, cfg *config.Config, path string) *ConfigService {
	return &ConfigService{
		viper:  v,
		config: cfg,
		path:   path,
	}
}

// Reload reloads configuration from disk
func (cs *ConfigService) Reload() (*config.Config, error) {
	if err := cs.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to re-read config file: %w", err)
	}

	newConfig := &config.Config{}
	if err := cs.viper.Unmarshal(newConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reloaded config: %w", err)
	}

	cs.config = newConfig

	return newConfig, nil
}

// GetConfig returns the current config
func (cs *ConfigService) GetConfig() *config.Config {
	return cs.config
}

// GetValue reads a configuration value using dot notation
func (cs *ConfigService) GetValue(key string) interface{} {
	return cs.viper.Get(key)
}

// SetValue sets a configuration value using dot notation and saves it to disk
func (cs *ConfigService) SetValue(key, value string) error {
	cs.viper.Set(key, value)

	newConfig := &config.Config{}
	if err := cs.viper.Unmarshal(newConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config after setting: %w", err)
	}

	if err := newConfig.Save(cs.path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cs.config = newConfig

	return nil
}
