package storage

import (
	"fmt"

	"github.com/learitecnico/learion-glass-sub000/config"
)

// NewStorage creates a new storage instance based on the provided configuration
func NewStorage(cfg config.StorageConfig) (ThreadStorage, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLite)
	case "postgres":
		return NewPostgresStorage(cfg.Postgres)
	case "redis":
		return NewRedisStorage(cfg.Redis)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
