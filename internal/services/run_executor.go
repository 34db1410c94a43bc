package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// RunExecutor drives one remote run to completion: submit the pending user
// message, create the run, poll its status on a fixed cadence with a bounded
// attempt budget, classify the terminal state, and fetch the assistant's
// reply on success.
//
// The attempt ceiling bounds worst-case latency: the remote execution is
// asynchronous with no push channel, so without the ceiling a run stuck in
// progress would hold the single-flight slot forever.
type RunExecutor struct {
	gateway         domain.ConversationGateway
	pollInterval    time.Duration
	maxPollAttempts int
}

// NewRunExecutor creates a run executor. Interval and attempt ceiling come
// from configuration so tests can shrink them.
func NewRunExecutor(gateway domain.ConversationGateway, pollInterval time.Duration, maxPollAttempts int) *RunExecutor {
	return &RunExecutor{
		gateway:         gateway,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
	}
}

// Execute posts the user message to the thread, runs the agent against it and
// returns the assistant's reply. It blocks until a terminal state, the poll
// ceiling, or ctx cancellation.
func (e *RunExecutor) Execute(ctx context.Context, threadID, agentID, message string) (string, error) {
	if err := e.gateway.PostMessage(ctx, threadID, message); err != nil {
		return "", fmt.Errorf("submit message: %w", err)
	}

	runID, err := e.gateway.CreateRun(ctx, threadID, agentID)
	if err != nil {
		return "", fmt.Errorf("submit run: %w", err)
	}

	run, err := e.poll(ctx, threadID, runID)
	if err != nil {
		return "", err
	}

	switch run.Status {
	case domain.RunStatusCompleted:
		text, err := e.gateway.GetLatestAssistantMessage(ctx, threadID)
		if err != nil {
			return "", err
		}
		return text, nil

	case domain.RunStatusFailed, domain.RunStatusCancelled, domain.RunStatusExpired:
		msg := run.LastError
		if msg == "" {
			msg = "the assistant reported no error detail"
		}
		return "", fmt.Errorf("%w: %s (%s)", domain.ErrRunFailed, msg, run.Status)

	default:
		// poll already guarantees a terminal status here
		return "", fmt.Errorf("%w: unexpected status %s", domain.ErrRunFailed, run.Status)
	}
}

// poll fetches run status once per interval until a terminal state or the
// attempt ceiling. The ceiling fires even if the remote system never reaches
// a terminal state, producing a timeout error distinct from a remote-reported
// failure.
func (e *RunExecutor) poll(ctx context.Context, threadID, runID string) (domain.Run, error) {
	log := logger.L(ctx).With(zap.String("run_id", runID))

	for attempt := 1; attempt <= e.maxPollAttempts; attempt++ {
		run, err := e.gateway.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			return domain.Run{}, fmt.Errorf("poll run %s: %w", runID, err)
		}

		log.Debug("Polled run status",
			zap.String("status", string(run.Status)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.maxPollAttempts))

		if run.Status.Terminal() {
			return run, nil
		}

		if attempt < e.maxPollAttempts {
			select {
			case <-ctx.Done():
				return domain.Run{}, ctx.Err()
			case <-time.After(e.pollInterval):
			}
		}
	}

	return domain.Run{}, fmt.Errorf("%w: run %s not terminal after %d attempts",
		domain.ErrRunPollTimeout, runID, e.maxPollAttempts)
}
