package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// MoveTaskInput contains the parameters for moving a task between states.
type MoveTaskInput struct {
	TaskID string
	To     domain.TaskState
	Reason string // Required when moving to blocked
}

// MoveTaskOutput contains the result of moving a task.
type MoveTaskOutput struct {
	Task *domain.Task
}

// MoveTask is the use case for relocating a task to another state.
type MoveTask struct {
	store  domain.TaskStore
	logger domain.Logger
}

// NewMoveTask creates a new MoveTask use case.
func NewMoveTask(store domain.TaskStore, logger domain.Logger) *MoveTask {
	return &MoveTask{store: store, logger: logger}
}

// Execute moves the task from its current state. A task that still
// references a live session cannot move; kill or release the session
// first. A concurrent mover changing the state between the read and the
// move surfaces as ErrTaskNotFound.
func (uc *MoveTask) Execute(in MoveTaskInput) (*MoveTaskOutput, error) {
	current, err := uc.store.Get(in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("task %s: %w", in.TaskID, domain.ErrTaskNotFound)
	}

	task, err := uc.store.Move(in.TaskID, current.State, in.To, in.Reason)
	if err != nil {
		return nil, fmt.Errorf("move task %s: %w", in.TaskID, err)
	}
	uc.logger.Info(task.ID, "task", fmt.Sprintf("moved to %s", in.To))
	return &MoveTaskOutput{Task: task}, nil
}
