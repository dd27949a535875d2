package usecase

import (
	"errors"
	"fmt"

	"orchd/internal/domain"
)

// KillAllSessionsOutput contains the per-session outcome of a sweep.
type KillAllSessionsOutput struct {
	Killed   []string
	Failures []KillFailure
}

// KillFailure records a session that could not be killed.
type KillFailure struct {
	Err       error
	SessionID string
}

// KillAllSessions is the use case for terminating every live session at
// once, parking each affected task in blocked.
type KillAllSessions struct {
	supervisor domain.Supervisor
	kill       *KillSession
	logger     domain.Logger
}

// NewKillAllSessions creates a new KillAllSessions use case.
func NewKillAllSessions(supervisor domain.Supervisor, kill *KillSession, logger domain.Logger) *KillAllSessions {
	return &KillAllSessions{supervisor: supervisor, kill: kill, logger: logger}
}

// Execute kills every live session. Sessions are independent: one failure
// is reported without aborting the rest of the sweep.
func (uc *KillAllSessions) Execute() (*KillAllSessionsOutput, error) {
	sessions, err := uc.supervisor.List()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := &KillAllSessionsOutput{}
	for _, session := range sessions {
		if !session.Live() {
			continue
		}
		_, err := uc.kill.Execute(KillSessionInput{TaskID: session.TaskID})
		switch {
		case err == nil, errors.Is(err, domain.ErrSessionNotFound):
		case errors.Is(err, domain.ErrTaskNotFound):
			// Orphan session: its task is gone, so there is nothing to park.
			if err := uc.supervisor.Kill(session.ID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				out.Failures = append(out.Failures, KillFailure{SessionID: session.ID, Err: err})
				continue
			}
			_ = uc.supervisor.Release(session.ID)
		default:
			out.Failures = append(out.Failures, KillFailure{SessionID: session.ID, Err: err})
			continue
		}
		out.Killed = append(out.Killed, session.ID)
	}

	uc.logger.Info("", "session", fmt.Sprintf("kill-all: %d killed, %d failed", len(out.Killed), len(out.Failures)))
	return out, nil
}
