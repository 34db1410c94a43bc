package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThreadRecordExpired(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := ThreadRecord{ThreadID: "thread_1", AgentID: "asst_1", CreatedAt: created}
	ttl := 24 * time.Hour

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"well within ttl", created.Add(time.Hour), false},
		{"exactly at ttl", created.Add(ttl), false},
		{"just past ttl", created.Add(ttl + time.Nanosecond), true},
		{"long past ttl", created.Add(30 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, rec.Expired(tt.now, ttl))
		})
	}
}

func TestRunStatusTerminal(t *testing.T) {
	terminal := []RunStatus{RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired}
	for _, status := range terminal {
		assert.True(t, status.Terminal(), "status %s", status)
	}

	for _, status := range []RunStatus{RunStatusQueued, RunStatusInProgress, RunStatus("unknown")} {
		assert.False(t, status.Terminal(), "status %s", status)
	}
}

func TestEventSinkFunc(t *testing.T) {
	var got SessionEvent
	sink := EventSinkFunc(func(event SessionEvent) { got = event })

	event := AssistantResponseEvent{BaseSessionEvent: Base(), Text: "hello"}
	sink.Publish(event)

	assert.Equal(t, event, got)
}
