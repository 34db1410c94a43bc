package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the config file location relative to the working directory
const DefaultConfigPath = ".glass/config.yaml"

// Config represents the client configuration
type Config struct {
	Gateway GatewayConfig `yaml:"gateway" mapstructure:"gateway"`
	Run     RunConfig     `yaml:"run" mapstructure:"run"`
	Threads ThreadsConfig `yaml:"threads" mapstructure:"threads"`
	Audio   AudioConfig   `yaml:"audio" mapstructure:"audio"`
	Camera  CameraConfig  `yaml:"camera" mapstructure:"camera"`
	Speech  SpeechConfig  `yaml:"speech" mapstructure:"speech"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Agents  []AgentConfig `yaml:"agents" mapstructure:"agents"`
}

// GatewayConfig contains remote conversation gateway connection settings
type GatewayConfig struct {
	URL     string      `yaml:"url" mapstructure:"url"`
	APIKey  string      `yaml:"api_key" mapstructure:"api_key"`
	Timeout int         `yaml:"timeout" mapstructure:"timeout"`
	Retry   RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig contains transport-level retry settings
type RetryConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts       int  `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSec int  `yaml:"initial_backoff_sec" mapstructure:"initial_backoff_sec"`
	MaxBackoffSec     int  `yaml:"max_backoff_sec" mapstructure:"max_backoff_sec"`
}

// RunConfig contains remote run execution settings
type RunConfig struct {
	PollIntervalMs  int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	MaxPollAttempts int `yaml:"max_poll_attempts" mapstructure:"max_poll_attempts"`
}

// ThreadsConfig contains conversation thread lifecycle settings
type ThreadsConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// AudioConfig contains audio capture settings
type AudioConfig struct {
	MaxRecordingSec int    `yaml:"max_recording_sec" mapstructure:"max_recording_sec"`
	MinRecordingMs  int    `yaml:"min_recording_ms" mapstructure:"min_recording_ms"`
	SampleRate      int    `yaml:"sample_rate" mapstructure:"sample_rate"`
	Language        string `yaml:"language" mapstructure:"language"`
}

// CameraConfig contains camera capture settings. Source points at the frame
// source; empty means a built-in placeholder frame.
type CameraConfig struct {
	Source string `yaml:"source,omitempty" mapstructure:"source"`
}

// SpeechConfig contains speech synthesis settings
type SpeechConfig struct {
	Voice string  `yaml:"voice" mapstructure:"voice"`
	Speed float64 `yaml:"speed" mapstructure:"speed"`
}

// StorageConfig contains thread storage backend settings
type StorageConfig struct {
	Type     string         `yaml:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
	Redis    RedisConfig    `yaml:"redis,omitempty" mapstructure:"redis"`
}

// SQLiteConfig contains SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains Postgres-specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database int    `yaml:"database" mapstructure:"database"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "https://api.openai.com/v1",
			APIKey:  "",
			Timeout: 30,
			Retry: RetryConfig{
				Enabled:           true,
				MaxAttempts:       3,
				InitialBackoffSec: 1,
				MaxBackoffSec:     3,
			},
		},
		Run: RunConfig{
			PollIntervalMs:  1000,
			MaxPollAttempts: 30,
		},
		Threads: ThreadsConfig{
			TTLHours: 24,
		},
		Audio: AudioConfig{
			MaxRecordingSec: 60,
			MinRecordingMs:  1000,
			SampleRate:      16000,
			Language:        "en",
		},
		Speech: SpeechConfig{
			Voice: "alloy",
			Speed: 1.0,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: ".glass/threads.db",
			},
		},
		Agents: DefaultAgents(),
	}
}

// Load loads configuration through viper: defaults, then the config file if
// present, then GLASS_* environment overrides
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("GLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = GetConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Agents) == 0 {
		cfg.Agents = DefaultAgents()
	}

	return cfg, v, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("gateway.url", cfg.Gateway.URL)
	v.SetDefault("gateway.api_key", cfg.Gateway.APIKey)
	v.SetDefault("gateway.timeout", cfg.Gateway.Timeout)
	v.SetDefault("gateway.retry.enabled", cfg.Gateway.Retry.Enabled)
	v.SetDefault("gateway.retry.max_attempts", cfg.Gateway.Retry.MaxAttempts)
	v.SetDefault("gateway.retry.initial_backoff_sec", cfg.Gateway.Retry.InitialBackoffSec)
	v.SetDefault("gateway.retry.max_backoff_sec", cfg.Gateway.Retry.MaxBackoffSec)
	v.SetDefault("run.poll_interval_ms", cfg.Run.PollIntervalMs)
	v.SetDefault("run.max_poll_attempts", cfg.Run.MaxPollAttempts)
	v.SetDefault("threads.ttl_hours", cfg.Threads.TTLHours)
	v.SetDefault("audio.max_recording_sec", cfg.Audio.MaxRecordingSec)
	v.SetDefault("audio.min_recording_ms", cfg.Audio.MinRecordingMs)
	v.SetDefault("audio.sample_rate", cfg.Audio.SampleRate)
	v.SetDefault("audio.language", cfg.Audio.Language)
	v.SetDefault("camera.source", cfg.Camera.Source)
	v.SetDefault("speech.voice", cfg.Speech.Voice)
	v.SetDefault("speech.speed", cfg.Speech.Speed)
	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.sqlite.path", cfg.Storage.SQLite.Path)
}

// Save writes the configuration to file with stable two-space indentation
func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = GetConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path relative to the working directory
func GetConfigPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return DefaultConfigPath
	}
	return filepath.Join(wd, DefaultConfigPath)
}
