package usecase

import (
	"errors"
	"fmt"

	"orchd/internal/domain"
)

// KillSessionInput contains the parameters for killing a task's session.
type KillSessionInput struct {
	TaskID string
	Reason string // Recorded on the blocked task; defaults to "session killed"
}

// KillSessionOutput contains the result of killing a session.
type KillSessionOutput struct {
	Task *domain.Task
}

// KillSession is the use case for terminating a task's agent session and
// parking the task in the blocked partition.
type KillSession struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
	logger     domain.Logger
}

// NewKillSession creates a new KillSession use case.
func NewKillSession(store domain.TaskStore, supervisor domain.Supervisor, logger domain.Logger) *KillSession {
	return &KillSession{store: store, supervisor: supervisor, logger: logger}
}

// Execute kills the task's session. A session that already ended on its
// own still gets detached and released, so killing is idempotent from the
// operator's point of view.
func (uc *KillSession) Execute(in KillSessionInput) (*KillSessionOutput, error) {
	task, err := uc.store.Get(in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", in.TaskID, domain.ErrTaskNotFound)
	}
	if !task.HasSession() {
		return nil, fmt.Errorf("task %s has no session: %w", in.TaskID, domain.ErrSessionNotFound)
	}

	if err := uc.supervisor.Kill(task.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("kill session %s: %w", task.SessionID, err)
	}

	if err := uc.store.DetachSession(task.ID); err != nil {
		return nil, fmt.Errorf("detach session from %s: %w", task.ID, err)
	}
	if err := uc.supervisor.Release(task.SessionID); err != nil {
		uc.logger.Warn(task.ID, "session", fmt.Sprintf("release %s: %v", task.SessionID, err))
	}

	reason := in.Reason
	if reason == "" {
		reason = "session killed"
	}
	moved, err := uc.store.Move(task.ID, task.State, domain.StateBlocked, reason)
	if err != nil {
		return nil, fmt.Errorf("move task %s to blocked: %w", task.ID, err)
	}

	uc.logger.Info(task.ID, "session", fmt.Sprintf("killed %s: %s", task.SessionID, reason))
	return &KillSessionOutput{Task: moved}, nil
}
