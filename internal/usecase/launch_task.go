package usecase

import (
	"context"
	"fmt"

	"orchd/internal/domain"
)

// LaunchTaskInput contains the parameters for launching a task.
// Fields are ordered to minimize memory padding.
type LaunchTaskInput struct {
	TaskID string
	Agent  string // Overrides the task's agent for this launch
	Model  string // Overrides the task's model for this launch
}

// LaunchTaskOutput contains the result of launching a task.
type LaunchTaskOutput struct {
	Task         *domain.Task
	Session      *domain.Session
	WorktreePath string // Empty when worktree isolation is off
}

// LaunchTask is the use case for spawning an agent session on a task and
// moving it into the in-progress partition.
type LaunchTask struct {
	store        domain.TaskStore
	supervisor   domain.Supervisor
	worktrees    domain.WorktreeManager
	configLoader domain.ConfigLoader
	logger       domain.Logger
}

// NewLaunchTask creates a new LaunchTask use case.
func NewLaunchTask(
	store domain.TaskStore,
	supervisor domain.Supervisor,
	worktrees domain.WorktreeManager,
	configLoader domain.ConfigLoader,
	logger domain.Logger,
) *LaunchTask {
	return &LaunchTask{
		store:        store,
		supervisor:   supervisor,
		worktrees:    worktrees,
		configLoader: configLoader,
		logger:       logger,
	}
}

// Execute plans and spawns a session for the task. The task moves to
// in-progress before the session reference is attached, so a move failure
// (another caller won the race) tears the fresh session down instead of
// leaving it orphaned.
func (uc *LaunchTask) Execute(ctx context.Context, in LaunchTaskInput) (*LaunchTaskOutput, error) {
	task, err := uc.store.Get(in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", in.TaskID, domain.ErrTaskNotFound)
	}
	if task.State == domain.StateCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, domain.ErrInvalidState)
	}
	if task.HasSession() {
		return nil, fmt.Errorf("task %s: %w", task.ID, domain.ErrSessionRunning)
	}

	cfg, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Per-launch overrides apply to a copy; the record keeps what the
	// operator wrote.
	planned := *task
	if in.Agent != "" {
		planned.Agent = in.Agent
	}
	if planned.Agent == "" {
		planned.Agent = cfg.DefaultAgent
	}
	if in.Model != "" {
		planned.Model = in.Model
	}

	spec, err := domain.PlanLaunch(&planned, cfg.Agents, cfg.DefaultWorkdir)
	if err != nil {
		return nil, fmt.Errorf("plan launch for %s: %w", task.ID, err)
	}

	var worktreePath string
	if cfg.Worktree.Enabled {
		worktreePath, err = uc.worktrees.Create(task.ID, spec.Dir, cfg.Worktree.BaseBranch)
		if err != nil {
			return nil, fmt.Errorf("create worktree for %s: %w", task.ID, err)
		}
		spec.Dir = worktreePath
	}

	session, err := uc.supervisor.Spawn(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("spawn session for %s: %w", task.ID, err)
	}

	moved, err := uc.store.Move(task.ID, task.State, domain.StateInProgress, "")
	if err != nil {
		uc.teardown(session.ID)
		return nil, fmt.Errorf("move task %s to in-progress: %w", task.ID, err)
	}
	if err := uc.store.AttachSession(task.ID, session.ID); err != nil {
		uc.teardown(session.ID)
		return nil, fmt.Errorf("attach session to %s: %w", task.ID, err)
	}
	moved.SessionID = session.ID

	uc.logger.Info(task.ID, "launch", fmt.Sprintf("session %s started with agent %s", session.ID, spec.Agent))
	return &LaunchTaskOutput{Task: moved, Session: session, WorktreePath: worktreePath}, nil
}

// teardown undoes a spawn whose task-side bookkeeping failed.
func (uc *LaunchTask) teardown(sessionID string) {
	_ = uc.supervisor.Kill(sessionID)
	_ = uc.supervisor.Release(sessionID)
}
