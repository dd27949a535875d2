// Package app provides the dependency injection container for the application.
package app

import (
	"time"

	"orchd/internal/domain"
	"orchd/internal/infra/config"
	"orchd/internal/infra/logging"
	"orchd/internal/infra/queuestore"
	"orchd/internal/infra/supervise"
	"orchd/internal/infra/tmux"
	"orchd/internal/infra/worktree"
	"orchd/internal/usecase"
)

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use
// cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Tasks        domain.TaskStore
	Supervisor   domain.Supervisor
	Worktrees    domain.WorktreeManager
	ConfigLoader domain.ConfigLoader
	Clock        domain.Clock

	// Pointer fields
	Logger *logging.Logger
	Config *domain.Config
}

// New creates a Container using the default state root ($ORCHD_ROOT or
// ~/.orchd).
func New() (*Container, error) {
	return NewWithLoader(config.NewLoader())
}

// NewWithLoader creates a Container from an explicit config loader.
// This is useful for testing.
func NewWithLoader(loader domain.ConfigLoader) (*Container, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Root, logging.ParseLevel(cfg.Log.Level))
	clock := domain.RealClock{}

	store := queuestore.New(domain.QueuePath(cfg.Root), clock, logger)
	if err := store.Init(); err != nil {
		return nil, err
	}

	tmuxClient := tmux.NewClient(domain.TmuxSocketPath(cfg.Root))
	supervisor, err := supervise.New(cfg.Root, tmuxClient, clock, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Tasks:        store,
		Supervisor:   supervisor,
		Worktrees:    worktree.NewClient(cfg.Root),
		ConfigLoader: loader,
		Clock:        clock,
		Logger:       logger,
		Config:       cfg,
	}, nil
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	return c.Logger.Close()
}

// CreateTask returns the use case for creating a task.
func (c *Container) CreateTask() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Tasks, c.ConfigLoader, c.Clock, c.Logger)
}

// ListTasks returns the use case for listing tasks.
func (c *Container) ListTasks() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks)
}

// MoveTask returns the use case for moving a task between states.
func (c *Container) MoveTask() *usecase.MoveTask {
	return usecase.NewMoveTask(c.Tasks, c.Logger)
}

// DeleteTask returns the use case for deleting a task.
func (c *Container) DeleteTask() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Tasks, c.Supervisor, c.Worktrees, c.Logger)
}

// LaunchTask returns the use case for launching an agent session.
func (c *Container) LaunchTask() *usecase.LaunchTask {
	return usecase.NewLaunchTask(c.Tasks, c.Supervisor, c.Worktrees, c.ConfigLoader, c.Logger)
}

// LaunchFleet returns the use case for running a fleet file.
func (c *Container) LaunchFleet() *usecase.LaunchFleet {
	return usecase.NewLaunchFleet(c.CreateTask(), c.LaunchTask(), c.Logger)
}

// KillSession returns the use case for killing a task's session.
func (c *Container) KillSession() *usecase.KillSession {
	return usecase.NewKillSession(c.Tasks, c.Supervisor, c.Logger)
}

// KillAllSessions returns the use case for killing every live session.
func (c *Container) KillAllSessions() *usecase.KillAllSessions {
	return usecase.NewKillAllSessions(c.Supervisor, c.KillSession(), c.Logger)
}

// ListSessions returns the use case for listing sessions.
func (c *Container) ListSessions() *usecase.ListSessions {
	return usecase.NewListSessions(c.Supervisor)
}

// SendInput returns the use case for sending input to a session.
func (c *Container) SendInput() *usecase.SendInput {
	return usecase.NewSendInput(c.Tasks, c.Supervisor)
}

// PeekSession returns the use case for peeking at session output.
func (c *Container) PeekSession() *usecase.PeekSession {
	return usecase.NewPeekSession(c.Tasks, c.Supervisor)
}

// AttachSession returns the use case for attaching to a session.
func (c *Container) AttachSession() *usecase.AttachSession {
	return usecase.NewAttachSession(c.Tasks, c.Supervisor)
}

// Reconciler returns the reconciliation loop.
func (c *Container) Reconciler() *usecase.Reconciler {
	interval := time.Duration(c.Config.Reconcile.IntervalSeconds) * time.Second
	return usecase.NewReconciler(c.Tasks, c.Supervisor, c.Logger, interval)
}
