// Package queuestore provides the partitioned, file-based task store.
//
// The queue root holds one directory per task state (pending, in-progress,
// blocked, completed); each task is a single record file named <id>.md.
// Moving a task between states is a rename between partitions, never an
// in-place field edit, so partition membership can never disagree with a
// stored state attribute.
package queuestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"orchd/internal/domain"
	"orchd/internal/infra/taskfile"
)

// Store implements domain.TaskStore on a queue root directory.
// Fields are ordered to minimize memory padding.
type Store struct {
	locks  map[string]*sync.Mutex
	logger domain.Logger
	clock  domain.Clock
	root   string
	mu     sync.Mutex
}

// New creates a Store rooted at the given queue directory.
func New(root string, clock domain.Clock, logger domain.Logger) *Store {
	return &Store{
		root:   root,
		clock:  clock,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Ensure Store implements domain.TaskStore.
var _ domain.TaskStore = (*Store)(nil)

// Init creates the partition directories.
func (s *Store) Init() error {
	for _, state := range domain.AllStates() {
		if err := os.MkdirAll(s.partitionDir(state), 0o750); err != nil {
			return fmt.Errorf("create partition %s: %w", state, err)
		}
	}
	return nil
}

// Create persists a new task into the pending partition.
func (s *Store) Create(t *domain.Task) error {
	if t.ID == "" {
		return errors.New("task id is empty")
	}
	unlock := s.lockTask(t.ID)
	defer unlock()

	if state, _ := s.find(t.ID); state != nil {
		return fmt.Errorf("task %s already exists in %s", t.ID, *state)
	}

	t.State = domain.StatePending
	path := s.recordPath(domain.StatePending, t.ID)
	if err := writeAtomic(path, taskfile.Encode(t), 0o644); err != nil {
		return fmt.Errorf("write task record: %w", err)
	}
	return nil
}

// Get retrieves a task by id, searching all partitions.
// Returns nil without error if the task does not exist.
func (s *Store) Get(id string) (*domain.Task, error) {
	state, path := s.find(id)
	if state == nil {
		return nil, nil
	}
	return s.readRecord(id, *state, path)
}

// List retrieves tasks in one partition, or all if state is nil.
func (s *Store) List(state *domain.TaskState) ([]*domain.Task, error) {
	states := domain.AllStates()
	if state != nil {
		if !state.IsValid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidState, *state)
		}
		states = []domain.TaskState{*state}
	}

	var tasks []*domain.Task
	for _, st := range states {
		entries, err := os.ReadDir(s.partitionDir(st))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read partition %s: %w", st, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".md") {
				continue
			}
			id := strings.TrimSuffix(name, ".md")
			task, err := s.readRecord(id, st, filepath.Join(s.partitionDir(st), name))
			if err != nil {
				// One bad record must not block traversal of the rest.
				if s.logger != nil {
					s.logger.Warn(id, "store", fmt.Sprintf("skipping unreadable record: %v", err))
				}
				continue
			}
			tasks = append(tasks, task)
		}
	}

	sortTasks(tasks)
	return tasks, nil
}

// Move atomically relocates a task's record from the partition the caller
// observed to the target partition.
//
// The from state is the lost-update guard: when two movers race, the first
// rename relocates the record out of from, so the second mover no longer
// finds it there and fails with ErrTaskNotFound instead of silently
// undoing the winner. Field updates (Updated, BlockedReason) happen after
// the rename, at which point this caller exclusively owns the record.
func (s *Store) Move(id string, from, to domain.TaskState, reason string) (*domain.Task, error) {
	if !from.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidState, from)
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidState, to)
	}
	if to == domain.StateBlocked && reason == "" {
		return nil, domain.ErrBlockReasonRequired
	}

	unlock := s.lockTask(id)
	defer unlock()

	srcPath := s.recordPath(from, id)
	task, err := s.readRecord(id, from, srcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("task %s not in %s: %w", id, from, domain.ErrTaskNotFound)
		}
		return nil, err
	}
	if task.HasSession() {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrSessionAttached)
	}
	if from == to {
		return task, nil
	}

	dstPath := s.recordPath(to, id)
	if err := os.Rename(srcPath, dstPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task %s not in %s: %w", id, from, domain.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("move task %s: %w", id, err)
	}

	task.State = to
	task.Updated = s.clock.Now()
	if to == domain.StateBlocked {
		task.BlockedReason = reason
	} else {
		task.BlockedReason = ""
	}
	if err := writeAtomic(dstPath, taskfile.Encode(task), 0o644); err != nil {
		return nil, fmt.Errorf("update moved task %s: %w", id, err)
	}
	return task, nil
}

// AttachSession records a session reference on a task. Only in-progress
// tasks accept one: if a sweeper relocated the task between the caller's
// move and this attach, the caller finds out here instead of leaving a
// parked task pointing at a live session nothing will ever revisit.
func (s *Store) AttachSession(id, sessionID string) error {
	unlock := s.lockTask(id)
	defer unlock()

	state, _ := s.find(id)
	if state == nil {
		return fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
	}
	if *state != domain.StateInProgress {
		return fmt.Errorf("task %s is %s, not %s: %w", id, *state, domain.StateInProgress, domain.ErrInvalidState)
	}

	return s.update(id, func(t *domain.Task) error {
		if t.SessionID != "" && t.SessionID != sessionID {
			return fmt.Errorf("task %s: %w", id, domain.ErrSessionAttached)
		}
		t.SessionID = sessionID
		return nil
	})
}

// DetachSession clears a task's session reference. Detaching an
// already-detached or absent task is a no-op, so reconciliation and
// client-initiated teardown can race safely.
func (s *Store) DetachSession(id string) error {
	unlock := s.lockTask(id)
	defer unlock()

	state, _ := s.find(id)
	if state == nil {
		return nil
	}
	return s.update(id, func(t *domain.Task) error {
		t.SessionID = ""
		return nil
	})
}

// Delete removes a task record.
func (s *Store) Delete(id string) error {
	unlock := s.lockTask(id)
	defer unlock()

	state, path := s.find(id)
	if state == nil {
		return fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
	}
	task, err := s.readRecord(id, *state, path)
	if err == nil && task.HasSession() {
		return fmt.Errorf("task %s: %w", id, domain.ErrSessionAttached)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
		}
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// update reads, mutates, and atomically rewrites a record in place.
// Callers must hold the task lock.
func (s *Store) update(id string, fn func(*domain.Task) error) error {
	state, path := s.find(id)
	if state == nil {
		return fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
	}
	task, err := s.readRecord(id, *state, path)
	if err != nil {
		return err
	}
	if err := fn(task); err != nil {
		return err
	}
	task.Updated = s.clock.Now()
	if err := writeAtomic(path, taskfile.Encode(task), 0o644); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

func (s *Store) readRecord(id string, state domain.TaskState, path string) (*domain.Task, error) {
	content, err := os.ReadFile(path) //nolint:gosec // Path is built from the store root and a task id
	if err != nil {
		return nil, fmt.Errorf("read task record: %w", err)
	}
	task, fieldErrs := taskfile.Decode(content)
	task.ID = id
	task.State = state
	for _, fe := range fieldErrs {
		if s.logger != nil {
			s.logger.Warn(id, "store", fe.Error())
		}
	}
	return task, nil
}

// find locates the partition currently holding the task.
func (s *Store) find(id string) (*domain.TaskState, string) {
	for _, state := range domain.AllStates() {
		path := s.recordPath(state, id)
		if _, err := os.Stat(path); err == nil {
			st := state
			return &st, path
		}
	}
	return nil, ""
}

// lockTask serializes mutations per task id. Different ids proceed
// independently.
func (s *Store) lockTask(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) partitionDir(state domain.TaskState) string {
	return filepath.Join(s.root, state.Partition())
}

func (s *Store) recordPath(state domain.TaskState, id string) string {
	return filepath.Join(s.partitionDir(state), domain.RecordFileName(id))
}

// sortTasks orders pending/blocked by priority then creation time,
// in-progress by creation time, and completed by recency.
func sortTasks(tasks []*domain.Task) {
	slices.SortStableFunc(tasks, func(a, b *domain.Task) int {
		if a.State != b.State {
			return strings.Compare(string(a.State), string(b.State))
		}
		if a.State == domain.StateCompleted {
			return b.Updated.Compare(a.Updated)
		}
		if a.State != domain.StateInProgress && a.Priority != b.Priority {
			return int(a.Priority) - int(b.Priority)
		}
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func writeAtomic(path string, content []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
