package domain

// RunStatus is the remote-reported execution state of a run
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
	RunStatusExpired    RunStatus = "expired"
)

// Terminal reports whether the status is a terminal state
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	default:
		return false
	}
}

// Run is one asynchronous execution of an agent against a thread's message
// history. It is a transient, one-shot object and is never persisted.
type Run struct {
	RunID     string
	ThreadID  string
	Status    RunStatus
	LastError string
}
