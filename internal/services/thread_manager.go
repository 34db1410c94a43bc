package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// ThreadManagerService owns the durable conversation-thread identifier per
// agent. Expiration is enforced lazily on read; CleanupExpired is advisory
// housekeeping only.
type ThreadManagerService struct {
	gateway domain.ConversationGateway
	store   storage.ThreadStorage
	ttl     time.Duration
	now     func() time.Time
}

// Compile-time assertion that the service implements domain.ThreadManager
var _ domain.ThreadManager = (*ThreadManagerService)(nil)

// NewThreadManager creates a thread manager with the given TTL
func NewThreadManager(gateway domain.ConversationGateway, store storage.ThreadStorage, ttl time.Duration) *ThreadManagerService {
	return &ThreadManagerService{
		gateway: gateway,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock; used by tests
func (t *ThreadManagerService) SetNowFunc(now func() time.Time) {
	t.now = now
}

// EnsureActiveThread returns the current valid thread for the agent, creating
// a new one when none exists or the persisted one expired. An expired thread
// is replaced silently; it is an expected, recoverable condition.
func (t *ThreadManagerService) EnsureActiveThread(ctx context.Context, agentID string) (string, error) {
	rec, err := t.store.LoadThread(ctx, agentID)
	if err == nil {
		if !t.IsExpired(rec, t.now()) {
			return rec.ThreadID, nil
		}
		logger.Debug("Persisted thread expired, replacing",
			"agent_id", agentID,
			"thread_id", rec.ThreadID)
	} else if !errors.Is(err, domain.ErrThreadNotFound) {
		return "", fmt.Errorf("load thread for %s: %w", agentID, err)
	}

	return t.CreateNewThread(ctx, agentID)
}

// CreateNewThread discards any existing thread for the agent and creates a
// fresh one. On failure the prior persisted state is left untouched.
func (t *ThreadManagerService) CreateNewThread(ctx context.Context, agentID string) (string, error) {
	threadID, err := t.gateway.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread for %s: %w", agentID, err)
	}

	now := t.now()
	rec := domain.ThreadRecord{
		ThreadID:   threadID,
		AgentID:    agentID,
		CreatedAt:  now,
		LastUsedAt: now,
	}

	if err := t.store.SaveThread(ctx, rec); err != nil {
		return "", fmt.Errorf("persist thread %s: %w", threadID, err)
	}

	logger.Info("Created new thread", "agent_id", agentID, "thread_id", threadID)
	return threadID, nil
}

// ClearActiveThread removes the persisted mapping without contacting the
// remote system
func (t *ThreadManagerService) ClearActiveThread(ctx context.Context, agentID string) error {
	return t.store.DeleteThread(ctx, agentID)
}

// Touch updates the thread's last-used time after a successful exchange
func (t *ThreadManagerService) Touch(ctx context.Context, agentID string) error {
	rec, err := t.store.LoadThread(ctx, agentID)
	if err != nil {
		return err
	}

	rec.LastUsedAt = t.now()
	return t.store.SaveThread(ctx, rec)
}

// IncrementMessageCount bumps the thread's message count after a successful
// exchange
func (t *ThreadManagerService) IncrementMessageCount(ctx context.Context, agentID string) error {
	rec, err := t.store.LoadThread(ctx, agentID)
	if err != nil {
		return err
	}

	rec.MessageCount++
	rec.LastUsedAt = t.now()
	return t.store.SaveThread(ctx, rec)
}

// IsExpired is a pure function of the record's creation time and the TTL
func (t *ThreadManagerService) IsExpired(rec domain.ThreadRecord, now time.Time) bool {
	return rec.Expired(now, t.ttl)
}

// CleanupExpired sweeps persisted storage and removes all entries older than
// the TTL. Safe to call at any time, including never.
func (t *ThreadManagerService) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := t.now().Add(-t.ttl)

	removed, err := t.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired threads: %w", err)
	}

	if removed > 0 {
		logger.Info("Removed expired threads", "count", removed)
	}

	return removed, nil
}
