package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orchd/internal/domain"
)

// Reconciler drives task state to match observed session outcomes. Each
// tick polls every in-progress task's session and applies transitions:
// a session that finished cleanly completes its task, a failed or lost
// session blocks it. Tasks without a live session are swept the same way,
// so a crash between spawn and attach can't strand a task in in-progress
// forever.
type Reconciler struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
	logger     domain.Logger
	interval   time.Duration
}

// NewReconciler creates a Reconciler ticking at the given interval.
func NewReconciler(store domain.TaskStore, supervisor domain.Supervisor, logger domain.Logger, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reconciler{store: store, supervisor: supervisor, logger: logger, interval: interval}
}

// Run ticks until the context is cancelled. Ticks use a fixed interval
// and never overlap: a slow tick delays the next one rather than stacking.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("", "reconcile", fmt.Sprintf("loop started, interval %s", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("", "reconcile", "loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick reconciles every in-progress task once. Tasks are handled in
// parallel since each poll can block on the terminal backend for up to
// its command timeout.
func (r *Reconciler) Tick(ctx context.Context) {
	state := domain.StateInProgress
	tasks, err := r.store.List(&state)
	if err != nil {
		r.logger.Error("", "reconcile", fmt.Sprintf("list in-progress: %v", err))
		return
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(t *domain.Task) {
			defer wg.Done()
			r.reconcileTask(t)
		}(task)
	}
	wg.Wait()
}

// reconcileTask applies at most one transition for the task. Every store
// operation tolerates ErrTaskNotFound: losing a race to a concurrent
// mover means someone else already handled the task.
func (r *Reconciler) reconcileTask(t *domain.Task) {
	if !t.HasSession() {
		r.finish(t, domain.StateBlocked, "session error")
		return
	}

	activity, err := r.supervisor.Poll(t.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			// The supervisor no longer tracks this session; an untracked
			// session counts as an error outcome.
			r.finish(t, domain.StateBlocked, "session error")
			return
		}
		r.logger.Warn(t.ID, "reconcile", fmt.Sprintf("poll %s: %v", t.SessionID, err))
		return
	}
	if !activity.IsTerminal() {
		return
	}

	switch activity {
	case domain.ActivityDone:
		r.finish(t, domain.StateCompleted, "")
	case domain.ActivityError:
		r.finish(t, domain.StateBlocked, "session error")
	}
}

// finish detaches the session reference, then moves the task. Detaching
// first is what makes the move legal: the store refuses to relocate a
// task that still points at a session.
func (r *Reconciler) finish(t *domain.Task, to domain.TaskState, reason string) {
	if t.HasSession() {
		if err := r.store.DetachSession(t.ID); err != nil {
			if !errors.Is(err, domain.ErrTaskNotFound) {
				r.logger.Warn(t.ID, "reconcile", fmt.Sprintf("detach: %v", err))
			}
			return
		}
		if err := r.supervisor.Release(t.SessionID); err != nil {
			r.logger.Warn(t.ID, "reconcile", fmt.Sprintf("release %s: %v", t.SessionID, err))
		}
	}

	if _, err := r.store.Move(t.ID, t.State, to, reason); err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			r.logger.Warn(t.ID, "reconcile", fmt.Sprintf("move to %s: %v", to, err))
		}
		return
	}
	r.logger.Info(t.ID, "reconcile", fmt.Sprintf("moved to %s", to.Display()))
}
