package services

import (
	"sync"

	"github.com/google/uuid"
)

// invocation carries the per-invocation state shared by both modality
// pipelines: a single-use guard, a disposed flag that discards late-arriving
// callbacks from cancelled operations, and a terminal-callback latch that
// guarantees exactly one terminal callback per invocation.
type invocation struct {
	id         string
	mu         sync.Mutex
	started    bool
	disposed   bool
	terminated bool
}

func newInvocation() invocation {
	return invocation{id: uuid.NewString()}
}

// begin marks the invocation started; a pipeline instance is single-use
func (p *invocation) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return false
	}
	p.started = true
	return true
}

// dispose marks the invocation cancelled so late callbacks are discarded
func (p *invocation) dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
}

// alive reports whether stage work may proceed
func (p *invocation) alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.disposed && !p.terminated
}

// finish claims the terminal callback slot. It returns false when the
// invocation was cancelled or a terminal callback already fired, in which
// case the caller must not invoke any callback.
func (p *invocation) finish() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed || p.terminated {
		return false
	}
	p.terminated = true
	return true
}
