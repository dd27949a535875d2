// Package usecase contains application use cases.
package usecase

import (
	"fmt"
	"strings"

	"orchd/internal/domain"
)

// CreateTaskInput contains the parameters for creating a task.
// Fields are ordered to minimize memory padding.
type CreateTaskInput struct {
	Title       string
	Description string
	Agent       string // Optional, resolved at launch time
	Model       string // Optional model override
	Workdir     string // Optional, falls back to config default at launch
	Priority    domain.Priority
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task *domain.Task
}

// CreateTask is the use case for creating a new pending task.
type CreateTask struct {
	store        domain.TaskStore
	configLoader domain.ConfigLoader
	clock        domain.Clock
	logger       domain.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(store domain.TaskStore, configLoader domain.ConfigLoader, clock domain.Clock, logger domain.Logger) *CreateTask {
	return &CreateTask{store: store, configLoader: configLoader, clock: clock, logger: logger}
}

// Execute creates a task in the pending partition. A named agent must be a
// configured capability; leaving it empty defers the choice to launch time.
func (uc *CreateTask) Execute(in CreateTaskInput) (*CreateTaskOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.ErrEmptyDescription
	}
	if !in.Priority.IsValid() {
		return nil, fmt.Errorf("priority %d: %w", in.Priority, domain.ErrInvalidPriority)
	}
	if in.Agent != "" {
		cfg, err := uc.configLoader.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if _, ok := cfg.Agents[in.Agent]; !ok {
			return nil, fmt.Errorf("agent %q: %w", in.Agent, domain.ErrUnknownAgent)
		}
	}

	now := uc.clock.Now()
	task := &domain.Task{
		ID:          domain.NewTaskID(now, title),
		Title:       title,
		Description: in.Description,
		Agent:       in.Agent,
		Model:       in.Model,
		Workdir:     in.Workdir,
		State:       domain.StatePending,
		Priority:    in.Priority,
		Created:     now,
		Updated:     now,
	}

	if err := uc.store.Create(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	uc.logger.Info(task.ID, "task", fmt.Sprintf("created %q", task.Title))
	return &CreateTaskOutput{Task: task}, nil
}
