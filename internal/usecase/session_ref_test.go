package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchd/internal/domain"
	"orchd/internal/infra/queuestore"
	"orchd/internal/testutil"
)

func TestResolveSessionID(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := queuestore.New(t.TempDir(), clock, testutil.NopLogger{})
	require.NoError(t, store.Init())
	supervisor := testutil.NewMockSupervisor()
	inProgressTask(t, store, supervisor, "task-20260115-090000-ref", "s1")

	t.Run("raw session id passes through", func(t *testing.T) {
		got, err := resolveSessionID(store, "0b6f8a12-3f6e-4a5c-9b1d-6f2a8c4e7d10")
		require.NoError(t, err)
		assert.Equal(t, "0b6f8a12-3f6e-4a5c-9b1d-6f2a8c4e7d10", got)
	})

	t.Run("task id resolves to its session", func(t *testing.T) {
		got, err := resolveSessionID(store, "task-20260115-090000-ref")
		require.NoError(t, err)
		assert.Equal(t, "s1", got)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := resolveSessionID(store, "task-20260115-090000-no")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("task without session", func(t *testing.T) {
		task := &domain.Task{
			ID:          "task-20260115-090000-bare",
			Title:       "t",
			Description: "d",
			Priority:    domain.DefaultPriority,
			Created:     clock.NowTime,
			Updated:     clock.NowTime,
		}
		require.NoError(t, store.Create(task))
		_, err := resolveSessionID(store, task.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
