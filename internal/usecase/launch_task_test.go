package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchd/internal/domain"
	"orchd/internal/infra/queuestore"
	"orchd/internal/testutil"
)

func testConfig() *domain.Config {
	return &domain.Config{
		Agents: map[string]domain.Agent{
			"claude": {
				Command:         "claude",
				CommandTemplate: `{{.Command}}{{if .Model}} --model {{.Model}}{{end}} {{.Prompt}}`,
			},
			"codex": {
				Command:         "codex",
				CommandTemplate: `{{.Command}}{{if .Model}} -m {{.Model}}{{end}} {{.Prompt}}`,
			},
		},
		DefaultAgent:   "claude",
		DefaultWorkdir: "/srv/work",
		Reconcile:      domain.ReconcileConfig{IntervalSeconds: 10},
	}
}

func newLaunchFixture(t *testing.T) (*LaunchTask, *queuestore.Store, *testutil.MockSupervisor, *testutil.MockWorktreeManager, *testutil.StaticConfigLoader) {
	t.Helper()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := queuestore.New(t.TempDir(), clock, testutil.NopLogger{})
	require.NoError(t, store.Init())
	supervisor := testutil.NewMockSupervisor()
	worktrees := &testutil.MockWorktreeManager{}
	loader := &testutil.StaticConfigLoader{Config: testConfig()}
	uc := NewLaunchTask(store, supervisor, worktrees, loader, testutil.NopLogger{})
	return uc, store, supervisor, worktrees, loader
}

func createPending(t *testing.T, store *queuestore.Store, id string) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID:          id,
		Title:       "t",
		Description: "do the thing",
		Priority:    domain.DefaultPriority,
		Created:     time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		Updated:     time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Create(task))
	return task
}

func TestLaunchTaskHappyPath(t *testing.T) {
	uc, store, supervisor, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-go")

	out, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.StateInProgress, out.Task.State)
	assert.Equal(t, out.Session.ID, out.Task.SessionID)
	assert.Equal(t, 1, supervisor.SpawnCount)

	stored, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, stored.State)
	assert.Equal(t, out.Session.ID, stored.SessionID)
}

func TestLaunchTaskDefaultAgentApplied(t *testing.T) {
	uc, store, supervisor, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-nm")

	_, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	require.NoError(t, err)

	var spawned *domain.Session
	for _, s := range supervisor.Sessions {
		spawned = s
	}
	require.NotNil(t, spawned)
	assert.Equal(t, "claude", spawned.Agent)
}

func TestLaunchTaskUnknownTask(t *testing.T) {
	uc, _, _, _, _ := newLaunchFixture(t)
	_, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: "task-20260115-090000-none"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestLaunchTaskCompletedRefused(t *testing.T) {
	uc, store, _, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-done")
	_, err := store.Move(task.ID, domain.StatePending, domain.StateCompleted, "")
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLaunchTaskAlreadyHasSession(t *testing.T) {
	uc, store, supervisor, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-dup")

	_, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	assert.ErrorIs(t, err, domain.ErrSessionRunning)
	assert.Equal(t, 1, supervisor.SpawnCount)
}

func TestLaunchTaskUnknownAgent(t *testing.T) {
	uc, store, supervisor, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-ag")

	_, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID, Agent: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownAgent)
	assert.Zero(t, supervisor.SpawnCount, "planning failures never spawn")

	stored, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, stored.State, "failed launch leaves the task where it was")
}

func TestLaunchTaskWithWorktree(t *testing.T) {
	uc, store, _, worktrees, loader := newLaunchFixture(t)
	loader.Config.Worktree = domain.WorktreeConfig{Enabled: true, BaseBranch: "main"}
	task := createPending(t, store, "task-20260115-090000-wt")

	out, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	require.NoError(t, err)

	assert.NotEmpty(t, out.WorktreePath)
	assert.Equal(t, []string{task.ID}, worktrees.Created)
}

// sweepingStore relocates the task to blocked right after a move to
// in-progress, reproducing a reconcile tick landing between LaunchTask's
// move and its session attach.
type sweepingStore struct {
	domain.TaskStore
	swept bool
}

func (s *sweepingStore) Move(id string, from, to domain.TaskState, reason string) (*domain.Task, error) {
	task, err := s.TaskStore.Move(id, from, to, reason)
	if err == nil && to == domain.StateInProgress && !s.swept {
		s.swept = true
		_, _ = s.TaskStore.Move(id, domain.StateInProgress, domain.StateBlocked, "session error")
	}
	return task, err
}

func TestLaunchTaskSweptBeforeAttachTearsDown(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := queuestore.New(t.TempDir(), clock, testutil.NopLogger{})
	require.NoError(t, store.Init())
	supervisor := testutil.NewMockSupervisor()
	loader := &testutil.StaticConfigLoader{Config: testConfig()}
	sweeping := &sweepingStore{TaskStore: store}
	uc := NewLaunchTask(sweeping, supervisor, &testutil.MockWorktreeManager{}, loader, testutil.NopLogger{})

	task := createPending(t, store, "task-20260115-090000-swept")

	_, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// The fresh session was torn down, not left live behind a parked task.
	require.Len(t, supervisor.Released, 1)
	got, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBlocked, got.State)
	assert.Empty(t, got.SessionID)
}

func TestLaunchTaskBlockedCanLaunch(t *testing.T) {
	uc, store, _, _, _ := newLaunchFixture(t)
	task := createPending(t, store, "task-20260115-090000-bl")
	_, err := store.Move(task.ID, domain.StatePending, domain.StateBlocked, "was stuck")
	require.NoError(t, err)

	out, err := uc.Execute(context.Background(), LaunchTaskInput{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, out.Task.State)
	assert.Empty(t, out.Task.BlockedReason, "leaving blocked clears the reason")
}
