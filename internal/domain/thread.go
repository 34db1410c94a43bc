package domain

import "time"

// ThreadRecord is the persisted state of one durable conversation thread.
// A thread belongs to exactly one agent at a time.
type ThreadRecord struct {
	ThreadID     string            `json:"thread_id"`
	AgentID      string            `json:"agent_id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastUsedAt   time.Time         `json:"last_used_at"`
	MessageCount int               `json:"message_count"`
	CustomData   map[string]string `json:"custom_data,omitempty"`
}

// Expired reports whether the thread is past its TTL at the given instant.
// Expiration is evaluated lazily on read; there is no background timer.
func (t ThreadRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) > ttl
}
