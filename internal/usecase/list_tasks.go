package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	State *domain.TaskState // nil lists every partition
}

// ListTasksOutput contains the result of listing tasks.
type ListTasksOutput struct {
	Tasks []*domain.Task
}

// ListTasks is the use case for listing task records.
type ListTasks struct {
	store domain.TaskStore
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(store domain.TaskStore) *ListTasks {
	return &ListTasks{store: store}
}

// Execute lists tasks, optionally filtered to one partition.
func (uc *ListTasks) Execute(in ListTasksInput) (*ListTasksOutput, error) {
	if in.State != nil && !in.State.IsValid() {
		return nil, fmt.Errorf("state %q: %w", *in.State, domain.ErrInvalidState)
	}
	tasks, err := uc.store.List(in.State)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &ListTasksOutput{Tasks: tasks}, nil
}
