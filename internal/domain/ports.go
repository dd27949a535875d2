package domain

import (
	"context"
	"time"
)

// TaskStore manages durable task records partitioned by state.
//
// Implementations must serialize mutating operations per task id while
// letting operations on different ids proceed independently, and must make
// Move atomic: a task is never observable in zero or two partitions, and
// when two movers race exactly one wins while the other sees
// ErrTaskNotFound.
type TaskStore interface {
	// Init creates the partition directories if they don't exist.
	Init() error

	// Create persists a new task into the pending partition.
	Create(t *Task) error

	// Get retrieves a task by id, searching all partitions.
	// Returns nil (no error) if not found.
	Get(id string) (*Task, error)

	// List retrieves tasks in one partition, or all partitions if state is
	// nil. Pending and blocked tasks are ordered by priority then creation
	// time; completed tasks by recency.
	List(state *TaskState) ([]*Task, error)

	// Move atomically relocates a task from the partition the caller
	// observed to the target partition and returns the updated task. Moving
	// to blocked requires a reason; moving out of blocked clears it. Fails
	// with ErrSessionAttached while a session reference is present, and
	// with ErrTaskNotFound when the record is no longer in from, which is
	// how the loser of a move race finds out.
	Move(id string, from, to TaskState, reason string) (*Task, error)

	// AttachSession records a session reference on a task. Fails with
	// ErrInvalidState unless the task is in-progress, so a caller whose
	// task was swept elsewhere mid-launch learns about it.
	AttachSession(id, sessionID string) error

	// DetachSession clears a task's session reference. Detaching an
	// already-detached or absent task is a no-op.
	DetachSession(id string) error

	// Delete removes a task record. The task must not have a live session.
	Delete(id string) error
}

// Supervisor owns spawned agent sessions and their process handles.
// Callers only ever see session ids; all process state stays behind this
// interface.
type Supervisor interface {
	// Spawn starts a detached session for the task. Fails with
	// ErrSessionRunning if the task already has a live session.
	Spawn(ctx context.Context, spec *LaunchSpec) (*Session, error)

	// Poll classifies the session's activity without blocking on the
	// process itself.
	Poll(sessionID string) (Activity, error)

	// Kill terminates a live session. Returns ErrSessionNotFound if the
	// session already ended on its own; that race is a normal outcome.
	Kill(sessionID string) error

	// Release drops a terminated session's handle and its on-disk leftovers.
	Release(sessionID string) error

	// Get returns a tracked session by id, or ErrSessionNotFound.
	Get(sessionID string) (*Session, error)

	// List returns a snapshot of all tracked sessions.
	List() ([]*Session, error)

	// Send forwards keys to a live session.
	Send(sessionID, keys string) error

	// Peek captures the last N lines of session output.
	Peek(sessionID string, lines int) (string, error)

	// AttachCommand returns the argv to attach a terminal to the session.
	AttachCommand(sessionID string) ([]string, error)
}

// WorktreeManager manages isolated git worktrees, keyed by task id.
type WorktreeManager interface {
	// Create adds a worktree on a new branch and returns its path.
	Create(id, repoPath, baseBranch string) (string, error)

	// Remove deletes the worktree and its branch.
	Remove(id string) error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (builtin defaults + user file).
	Load() (*Config, error)
}

// Logger writes leveled log entries, optionally scoped to a task.
type Logger interface {
	Debug(taskID, category, msg string)
	Info(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
