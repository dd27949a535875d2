package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	TaskID string
}

// DeleteTask is the use case for removing a task record permanently.
type DeleteTask struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
	worktrees  domain.WorktreeManager
	logger     domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(
	store domain.TaskStore,
	supervisor domain.Supervisor,
	worktrees domain.WorktreeManager,
	logger domain.Logger,
) *DeleteTask {
	return &DeleteTask{store: store, supervisor: supervisor, worktrees: worktrees, logger: logger}
}

// Execute deletes the task record and cleans up its worktree. Tasks with
// a live session are refused; kill the session first.
func (uc *DeleteTask) Execute(in DeleteTaskInput) error {
	task, err := uc.store.Get(in.TaskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task %s: %w", in.TaskID, domain.ErrTaskNotFound)
	}
	if task.HasSession() {
		if session, err := uc.supervisor.Get(task.SessionID); err == nil && session.Live() {
			return fmt.Errorf("task %s: %w", task.ID, domain.ErrSessionAttached)
		}
		// The reference points at a dead or unknown session; clear it so
		// the store allows deletion.
		if err := uc.store.DetachSession(task.ID); err != nil {
			return fmt.Errorf("detach session from %s: %w", task.ID, err)
		}
		_ = uc.supervisor.Release(task.SessionID)
	}

	if err := uc.store.Delete(task.ID); err != nil {
		return fmt.Errorf("delete task %s: %w", task.ID, err)
	}
	if err := uc.worktrees.Remove(task.ID); err != nil {
		uc.logger.Warn(task.ID, "worktree", fmt.Sprintf("remove: %v", err))
	}

	uc.logger.Info(task.ID, "task", "deleted")
	return nil
}
