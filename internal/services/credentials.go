package services

import (
	"os"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// ConfigCredentialStore resolves the gateway credential from config, falling
// back to the GLASS_API_KEY environment variable. Absence is a valid state
// and short-circuits active mode before any network call.
type ConfigCredentialStore struct {
	cfg *config.Config
}

// Compile-time assertion that the store implements domain.CredentialStore
var _ domain.CredentialStore = (*ConfigCredentialStore)(nil)

// NewConfigCredentialStore creates a credential store backed by config
func NewConfigCredentialStore(cfg *config.Config) *ConfigCredentialStore {
	return &ConfigCredentialStore{cfg: cfg}
}

// GetCredential returns the bearer credential and whether one is configured
func (s *ConfigCredentialStore) GetCredential() (string, bool) {
	if s.cfg.Gateway.APIKey != "" {
		return s.cfg.Gateway.APIKey, true
	}

	if key := os.Getenv("GLASS_API_KEY"); key != "" {
		return key, true
	}

	return "", false
}
