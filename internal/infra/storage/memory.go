package storage

import (
	"context"
	"sync"
	"time"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// MemoryStorage implements ThreadStorage using in-memory maps. It lets the
// session run without persistent storage and backs most tests.
type MemoryStorage struct {
	threads     map[string]domain.ThreadRecord
	preferences map[string]string
	mutex       sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		threads:     make(map[string]domain.ThreadRecord),
		preferences: make(map[string]string),
	}
}

// SaveThread persists a thread record, replacing any existing record for the agent
func (m *MemoryStorage) SaveThread(ctx context.Context, rec domain.ThreadRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.threads[rec.AgentID] = rec
	return nil
}

// LoadThread loads the thread record for an agent
func (m *MemoryStorage) LoadThread(ctx context.Context, agentID string) (domain.ThreadRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rec, exists := m.threads[agentID]
	if !exists {
		return domain.ThreadRecord{}, domain.ErrThreadNotFound
	}

	return rec, nil
}

// DeleteThread removes the persisted record for an agent
func (m *MemoryStorage) DeleteThread(ctx context.Context, agentID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.threads, agentID)
	return nil
}

// ListThreads returns all persisted thread records
func (m *MemoryStorage) ListThreads(ctx context.Context) ([]domain.ThreadRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	records := make([]domain.ThreadRecord, 0, len(m.threads))
	for _, rec := range m.threads {
		records = append(records, rec)
	}

	return records, nil
}

// DeleteExpired removes all records created before the cutoff
func (m *MemoryStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for agentID, rec := range m.threads {
		if rec.CreatedAt.Before(cutoff) {
			delete(m.threads, agentID)
			removed++
		}
	}

	return removed, nil
}

// SavePreference persists a client preference value
func (m *MemoryStorage) SavePreference(ctx context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.preferences[key] = value
	return nil
}

// LoadPreference loads a client preference; returns "" when unset
func (m *MemoryStorage) LoadPreference(ctx context.Context, key string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.preferences[key], nil
}

// Close closes the storage connection
func (m *MemoryStorage) Close() error {
	return nil
}

// Health checks if the storage is healthy
func (m *MemoryStorage) Health(ctx context.Context) error {
	return nil
}
