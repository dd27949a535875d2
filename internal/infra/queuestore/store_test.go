package queuestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchd/internal/domain"
	"orchd/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, *testutil.MockClock) {
	t.Helper()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := New(t.TempDir(), clock, testutil.NopLogger{})
	require.NoError(t, store.Init())
	return store, clock
}

func newTask(id, title string) *domain.Task {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:          id,
		Title:       title,
		Description: "desc",
		Priority:    domain.DefaultPriority,
		Created:     now,
		Updated:     now,
	}
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-one", "one")
	require.NoError(t, store.Create(task))

	got, err := store.Get(task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatePending, got.State)
	assert.Equal(t, "one", got.Title)

	// Absent tasks return nil without error.
	missing, err := store.Get("task-20260115-090000-none")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateDuplicateRejected(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-dup", "dup")
	require.NoError(t, store.Create(task))
	assert.Error(t, store.Create(newTask(task.ID, "other")))
}

func TestMoveBetweenPartitions(t *testing.T) {
	store, clock := newTestStore(t)

	task := newTask("task-20260115-090000-mv", "mv")
	require.NoError(t, store.Create(task))
	clock.Advance(time.Minute)

	moved, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, moved.State)
	assert.True(t, moved.Updated.After(task.Updated))

	// The record is in exactly one partition directory.
	root := store.root
	for _, state := range domain.AllStates() {
		_, err := os.Stat(filepath.Join(root, state.Partition(), task.ID+".md"))
		if state == domain.StateInProgress {
			assert.NoError(t, err)
		} else {
			assert.True(t, os.IsNotExist(err))
		}
	}
}

func TestMoveToBlockedRequiresReason(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-blk", "blk")
	require.NoError(t, store.Create(task))

	_, err := store.Move(task.ID, domain.StatePending, domain.StateBlocked, "")
	assert.ErrorIs(t, err, domain.ErrBlockReasonRequired)

	moved, err := store.Move(task.ID, domain.StatePending, domain.StateBlocked, "waiting on deps")
	require.NoError(t, err)
	assert.Equal(t, "waiting on deps", moved.BlockedReason)

	// Leaving blocked clears the reason.
	moved, err = store.Move(task.ID, domain.StateBlocked, domain.StatePending, "")
	require.NoError(t, err)
	assert.Empty(t, moved.BlockedReason)
}

func TestMoveSameStateIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-same", "same")
	require.NoError(t, store.Create(task))

	before, err := store.Get(task.ID)
	require.NoError(t, err)

	moved, err := store.Move(task.ID, domain.StatePending, domain.StatePending, "")
	require.NoError(t, err)
	assert.True(t, before.Updated.Equal(moved.Updated))
}

func TestMoveRejectsAttachedSession(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-att", "att")
	require.NoError(t, store.Create(task))
	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)
	require.NoError(t, store.AttachSession(task.ID, "session-1"))

	_, err = store.Move(task.ID, domain.StateInProgress, domain.StateCompleted, "")
	assert.ErrorIs(t, err, domain.ErrSessionAttached)

	require.NoError(t, store.DetachSession(task.ID))
	_, err = store.Move(task.ID, domain.StateInProgress, domain.StateCompleted, "")
	assert.NoError(t, err)
}

func TestMoveMissingTask(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Move("task-20260115-090000-nope", domain.StatePending, domain.StateCompleted, "")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestConcurrentMovesSingleWinner(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-race", "race")
	require.NoError(t, store.Create(task))

	// All movers observed the task in pending; only the first rename can
	// claim it there, so exactly one succeeds and the rest see
	// ErrTaskNotFound instead of relocating the winner's result.
	const movers = 8
	var wg sync.WaitGroup
	errsCh := make(chan error, movers)
	for i := 0; i < movers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			to := domain.StateInProgress
			if n%2 == 1 {
				to = domain.StateCompleted
			}
			_, err := store.Move(task.ID, domain.StatePending, to, "")
			errsCh <- err
		}(i)
	}
	wg.Wait()
	close(errsCh)

	var wins, losses int
	for err := range errsCh {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrTaskNotFound):
			losses++
		default:
			t.Fatalf("unexpected move error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, movers-1, losses)

	// The record ends up in exactly one partition.
	var found int
	for _, state := range domain.AllStates() {
		if _, err := os.Stat(filepath.Join(store.root, state.Partition(), task.ID+".md")); err == nil {
			found++
		}
	}
	assert.Equal(t, 1, found)
}

func TestMoveStaleSourceState(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-stale", "stale")
	require.NoError(t, store.Create(task))

	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)

	// A mover still holding the pending snapshot lost the race.
	_, err = store.Move(task.ID, domain.StatePending, domain.StateCompleted, "")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	got, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, got.State)
}

func TestAttachSessionConflicts(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-sess", "sess")
	require.NoError(t, store.Create(task))
	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)

	require.NoError(t, store.AttachSession(task.ID, "session-1"))
	// Re-attaching the same session id is idempotent.
	require.NoError(t, store.AttachSession(task.ID, "session-1"))
	// A different session cannot steal the slot.
	assert.ErrorIs(t, store.AttachSession(task.ID, "session-2"), domain.ErrSessionAttached)
}

func TestAttachSessionRequiresInProgress(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-parked", "parked")
	require.NoError(t, store.Create(task))

	// A pending task has no business holding a session reference.
	assert.ErrorIs(t, store.AttachSession(task.ID, "session-1"), domain.ErrInvalidState)

	// A task swept to blocked between a caller's move and its attach
	// refuses the late attach instead of silently parking a live session.
	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)
	_, err = store.Move(task.ID, domain.StateInProgress, domain.StateBlocked, "went sideways")
	require.NoError(t, err)
	assert.ErrorIs(t, store.AttachSession(task.ID, "session-1"), domain.ErrInvalidState)

	got, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SessionID)

	assert.ErrorIs(t, store.AttachSession("task-20260115-090000-ghost", "session-1"), domain.ErrTaskNotFound)
}

func TestDetachSessionIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-det", "det")
	require.NoError(t, store.Create(task))
	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)
	require.NoError(t, store.AttachSession(task.ID, "session-1"))

	require.NoError(t, store.DetachSession(task.ID))
	require.NoError(t, store.DetachSession(task.ID))
	// Detaching a task that doesn't exist is also a no-op.
	require.NoError(t, store.DetachSession("task-20260115-090000-ghost"))
}

func TestDeleteGuards(t *testing.T) {
	store, _ := newTestStore(t)

	assert.ErrorIs(t, store.Delete("task-20260115-090000-ghost"), domain.ErrTaskNotFound)

	task := newTask("task-20260115-090000-del", "del")
	require.NoError(t, store.Create(task))
	_, err := store.Move(task.ID, domain.StatePending, domain.StateInProgress, "")
	require.NoError(t, err)
	require.NoError(t, store.AttachSession(task.ID, "session-1"))
	assert.ErrorIs(t, store.Delete(task.ID), domain.ErrSessionAttached)

	require.NoError(t, store.DetachSession(task.ID))
	require.NoError(t, store.Delete(task.ID))

	got, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListOrdering(t *testing.T) {
	store, clock := newTestStore(t)

	mk := func(n int, p domain.Priority) *domain.Task {
		task := newTask(fmt.Sprintf("task-20260115-09000%d-t%d", n, n), fmt.Sprintf("t%d", n))
		task.Priority = p
		task.Created = clock.NowTime
		task.Updated = clock.NowTime
		require.NoError(t, store.Create(task))
		clock.Advance(time.Minute)
		return task
	}

	older := mk(1, domain.PriorityP2)
	urgent := mk(2, domain.PriorityP0)
	newer := mk(3, domain.PriorityP2)

	state := domain.StatePending
	tasks, err := store.List(&state)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	// Priority first, then creation time.
	assert.Equal(t, urgent.ID, tasks[0].ID)
	assert.Equal(t, older.ID, tasks[1].ID)
	assert.Equal(t, newer.ID, tasks[2].ID)
}

func TestListSkipsForeignFiles(t *testing.T) {
	store, _ := newTestStore(t)

	task := newTask("task-20260115-090000-ok", "ok")
	require.NoError(t, store.Create(task))

	// Stray files in a partition must not break listing.
	pending := filepath.Join(store.root, domain.StatePending.Partition())
	require.NoError(t, os.WriteFile(filepath.Join(pending, "README.txt"), []byte("not a task"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pending, "x.md.tmp"), []byte("partial"), 0o644))

	tasks, err := store.List(nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
}

func TestCompletedOrderedByRecency(t *testing.T) {
	store, clock := newTestStore(t)

	first := newTask("task-20260115-090001-a", "a")
	second := newTask("task-20260115-090002-b", "b")
	require.NoError(t, store.Create(first))
	require.NoError(t, store.Create(second))

	clock.Advance(time.Minute)
	_, err := store.Move(first.ID, domain.StatePending, domain.StateCompleted, "")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = store.Move(second.ID, domain.StatePending, domain.StateCompleted, "")
	require.NoError(t, err)

	state := domain.StateCompleted
	tasks, err := store.List(&state)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}
