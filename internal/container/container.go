package container

import (
	"fmt"
	"time"

	viper "github.com/spf13/viper"

	config "github.com/learitecnico/learion-glass-sub000/config"
	capture "github.com/learitecnico/learion-glass-sub000/internal/capture"
	domain "github.com/learitecnico/learion-glass-sub000/internal/domain"
	gateway "github.com/learitecnico/learion-glass-sub000/internal/gateway"
	storage "github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
	navigation "github.com/learitecnico/learion-glass-sub000/internal/navigation"
	services "github.com/learitecnico/learion-glass-sub000/internal/services"
)

// ServiceContainer manages all application dependencies
type ServiceContainer struct {
	// Configuration
	viper         *viper.Viper
	config        *config.Config
	configService *services.ConfigService

	// Infrastructure
	store   storage.ThreadStorage
	gateway domain.ConversationGateway

	// Devices
	recorder domain.AudioRecorder
	camera   domain.Camera
	player   domain.SpeechPlayer

	// Domain services
	credentials  domain.CredentialStore
	threads      domain.ThreadManager
	orchestrator *services.Orchestrator
	machine      *navigation.Machine
}

// Option overrides a default dependency, mainly for tests and device
// integrations.
type Option func(*ServiceContainer)

// WithRecorder overrides the audio capture device
func WithRecorder(r domain.AudioRecorder) Option {
	return func(c *ServiceContainer) { c.recorder = r }
}

// WithCamera overrides the camera device
func WithCamera(cam domain.Camera) Option {
	return func(c *ServiceContainer) { c.camera = cam }
}

// WithPlayer overrides the speech output device
func WithPlayer(p domain.SpeechPlayer) Option {
	return func(c *ServiceContainer) { c.player = p }
}

// NewServiceContainer creates a new service container with all dependencies
// wired. The sink receives every session event the orchestrator emits.
func NewServiceContainer(cfg *config.Config, v *viper.Viper, configPath string, sink domain.EventSink, opts ...Option) (*ServiceContainer, error) {
	c := &ServiceContainer{
		viper:  v,
		config: cfg,
	}

	if v != nil {
		c.configService = services.NewConfigService(v, cfg, configPath)
	}

	c.recorder = capture.NewStubRecorder(cfg.Audio.SampleRate)
	c.camera = capture.NewFileCamera(cfg.Camera.Source)
	c.player = capture.NewNopPlayer()
	for _, opt := range opts {
		opt(c)
	}

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.store = store

	c.credentials = services.NewConfigCredentialStore(cfg)
	c.gateway = gateway.NewClient(cfg.Gateway, c.credentials)
	c.threads = services.NewThreadManager(c.gateway, c.store,
		time.Duration(cfg.Threads.TTLHours)*time.Hour)

	c.orchestrator = services.NewOrchestrator(cfg, c.gateway, c.threads, c.store,
		c.credentials, c.recorder, c.camera, c.player, sink)
	c.machine = navigation.NewMachine(cfg.Agents, c.threads, c.orchestrator)

	return c, nil
}

// Close releases infrastructure resources
func (c *ServiceContainer) Close() error {
	if c.orchestrator != nil {
		c.orchestrator.ExitActiveMode()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// GetConfig returns the loaded configuration
func (c *ServiceContainer) GetConfig() *config.Config { return c.config }

// GetConfigService returns the config service, nil when no viper was provided
func (c *ServiceContainer) GetConfigService() *services.ConfigService { return c.configService }

// GetStorage returns the thread storage backend
func (c *ServiceContainer) GetStorage() storage.ThreadStorage { return c.store }

// GetGateway returns the remote conversation gateway
func (c *ServiceContainer) GetGateway() domain.ConversationGateway { return c.gateway }

// GetCredentialStore returns the credential store
func (c *ServiceContainer) GetCredentialStore() domain.CredentialStore { return c.credentials }

// GetThreadManager returns the thread lifecycle manager
func (c *ServiceContainer) GetThreadManager() domain.ThreadManager { return c.threads }

// GetOrchestrator returns the active-mode orchestrator
func (c *ServiceContainer) GetOrchestrator() *services.Orchestrator { return c.orchestrator }

// GetMachine returns the navigation state machine
func (c *ServiceContainer) GetMachine() *navigation.Machine { return c.machine }
