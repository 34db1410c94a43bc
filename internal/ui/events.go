package ui

import (
	"fmt"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// EventChannel adapts the session event sink onto a channel the bubbletea
// program consumes. Publish never blocks the orchestrator: when the UI falls
// behind, events are dropped with a log line rather than stalling a pipeline
// callback.
type EventChannel struct {
	ch chan domain.SessionEvent
}

var _ domain.EventSink = (*EventChannel)(nil)

// NewEventChannel creates a buffered event channel sink
func NewEventChannel() *EventChannel {
	return &EventChannel{ch: make(chan domain.SessionEvent, 64)}
}

// Publish delivers one session event to the UI
func (e *EventChannel) Publish(event domain.SessionEvent) {
	select {
	case e.ch <- event:
	default:
		logger.Warn("Dropping session event, UI channel full", "event", fmt.Sprintf("%T", event))
	}
}

// Events exposes the receive side for the UI loop
func (e *EventChannel) Events() <-chan domain.SessionEvent {
	return e.ch
}

// Close ends the stream; the UI loop stops waiting once drained
func (e *EventChannel) Close() {
	close(e.ch)
}
