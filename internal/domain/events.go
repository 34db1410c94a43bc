package domain

import "time"

// SessionEvent is the uniform event stream the orchestrator emits to the
// presentation layer
type SessionEvent interface {
	GetTimestamp() time.Time
}

// BaseSessionEvent provides common implementation for SessionEvent
type BaseSessionEvent struct {
	Timestamp time.Time
}

func (e BaseSessionEvent) GetTimestamp() time.Time { return e.Timestamp }

// Base returns a BaseSessionEvent stamped with the current time
func Base() BaseSessionEvent {
	return BaseSessionEvent{Timestamp: time.Now()}
}

// StatusUpdateEvent carries progressive feedback while an exchange is in flight
type StatusUpdateEvent struct {
	BaseSessionEvent
	Text string
}

// AssistantResponseEvent carries the assistant's reply text
type AssistantResponseEvent struct {
	BaseSessionEvent
	Text string
}

// ErrorEvent carries a user-visible error message
type ErrorEvent struct {
	BaseSessionEvent
	Err error
}

// ActiveModeStartedEvent indicates active mode was entered for an agent
type ActiveModeStartedEvent struct {
	BaseSessionEvent
	AgentID  string
	ThreadID string
}

// ActiveModeEndedEvent indicates active mode was exited
type ActiveModeEndedEvent struct {
	BaseSessionEvent
}

// ThreadCreatedEvent indicates a fresh thread replaced the session's current one
type ThreadCreatedEvent struct {
	BaseSessionEvent
	ThreadID string
}

// AudioToggledEvent indicates the audio-response preference changed
type AudioToggledEvent struct {
	BaseSessionEvent
	Enabled bool
}

// EventSink receives orchestrator events. Implementations must not block;
// delivery happens on the orchestrator's callback funnel.
type EventSink interface {
	Publish(event SessionEvent)
}

// EventSinkFunc adapts a function to the EventSink interface
type EventSinkFunc func(event SessionEvent)

func (f EventSinkFunc) Publish(event SessionEvent) { f(event) }
