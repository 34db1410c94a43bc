package storage

import (
	"context"
	"time"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// ThreadStorage defines the interface for persistent thread state. It holds
// the agent-to-thread mapping, per-thread metadata, and the small set of
// client preferences (audio-response toggle).
type ThreadStorage interface {
	// SaveThread persists a thread record, replacing any existing record for
	// the same agent
	SaveThread(ctx context.Context, rec domain.ThreadRecord) error

	// LoadThread loads the thread record for an agent; returns
	// domain.ErrThreadNotFound when none is persisted
	LoadThread(ctx context.Context, agentID string) (domain.ThreadRecord, error)

	// DeleteThread removes the persisted record for an agent; deleting a
	// missing record is not an error
	DeleteThread(ctx context.Context, agentID string) error

	// ListThreads returns all persisted thread records
	ListThreads(ctx context.Context) ([]domain.ThreadRecord, error)

	// DeleteExpired removes all records created before the cutoff and
	// returns how many were removed
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)

	// SavePreference persists a client preference value
	SavePreference(ctx context.Context, key, value string) error

	// LoadPreference loads a client preference; returns "" when unset
	LoadPreference(ctx context.Context, key string) (string, error)

	// Close closes the storage connection
	Close() error

	// Health checks if the storage is healthy and reachable
	Health(ctx context.Context) error
}

// Preference keys
const (
	PrefAudioResponse = "audio_response_enabled"
)
