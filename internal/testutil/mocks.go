// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"time"

	"orchd/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// NopLogger is a domain.Logger that discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, string, string) {}
func (NopLogger) Info(string, string, string)  {}
func (NopLogger) Warn(string, string, string)  {}
func (NopLogger) Error(string, string, string) {}

// MockSupervisor is a test double for domain.Supervisor.
// Fields are ordered to minimize memory padding.
type MockSupervisor struct {
	Sessions   map[string]*domain.Session
	Activities map[string]domain.Activity
	SpawnErr   error
	KillErr    error
	PollErr    error
	Killed     []string
	Released   []string
	SpawnCount int
}

// NewMockSupervisor creates a MockSupervisor with initialized maps.
func NewMockSupervisor() *MockSupervisor {
	return &MockSupervisor{
		Sessions:   make(map[string]*domain.Session),
		Activities: make(map[string]domain.Activity),
	}
}

// Spawn records a new session for the task.
func (m *MockSupervisor) Spawn(_ context.Context, spec *domain.LaunchSpec) (*domain.Session, error) {
	if m.SpawnErr != nil {
		return nil, m.SpawnErr
	}
	for _, s := range m.Sessions {
		if s.TaskID == spec.TaskID && s.Live() {
			return nil, fmt.Errorf("task %s: %w", spec.TaskID, domain.ErrSessionRunning)
		}
	}
	m.SpawnCount++
	session := &domain.Session{
		ID:        fmt.Sprintf("mock-session-%d", m.SpawnCount),
		TaskID:    spec.TaskID,
		Agent:     spec.Agent,
		Activity:  domain.ActivityIdle,
		StartedAt: time.Now(),
	}
	m.Sessions[session.ID] = session
	return session, nil
}

// Poll returns the configured activity for the session.
func (m *MockSupervisor) Poll(sessionID string) (domain.Activity, error) {
	if m.PollErr != nil {
		return "", m.PollErr
	}
	if _, ok := m.Sessions[sessionID]; !ok {
		return "", fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if activity, ok := m.Activities[sessionID]; ok {
		return activity, nil
	}
	return domain.ActivityIdle, nil
}

// Kill marks the session as ended.
func (m *MockSupervisor) Kill(sessionID string) error {
	if m.KillErr != nil {
		return m.KillErr
	}
	session, ok := m.Sessions[sessionID]
	if !ok || !session.Live() {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	session.EndedAt = time.Now()
	session.Activity = domain.ActivityError
	m.Killed = append(m.Killed, sessionID)
	return nil
}

// Release forgets the session.
func (m *MockSupervisor) Release(sessionID string) error {
	delete(m.Sessions, sessionID)
	m.Released = append(m.Released, sessionID)
	return nil
}

// Get returns a session by id.
func (m *MockSupervisor) Get(sessionID string) (*domain.Session, error) {
	session, ok := m.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return session, nil
}

// List returns all sessions.
func (m *MockSupervisor) List() ([]*domain.Session, error) {
	sessions := make([]*domain.Session, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Send is a no-op that validates the session is live.
func (m *MockSupervisor) Send(sessionID, _ string) error {
	return m.requireLive(sessionID)
}

// Peek returns a canned pane capture.
func (m *MockSupervisor) Peek(sessionID string, _ int) (string, error) {
	if err := m.requireLive(sessionID); err != nil {
		return "", err
	}
	return "mock output\n", nil
}

// AttachCommand returns a canned argv.
func (m *MockSupervisor) AttachCommand(sessionID string) ([]string, error) {
	if err := m.requireLive(sessionID); err != nil {
		return nil, err
	}
	return []string{"tmux", "attach-session", "-t", sessionID}, nil
}

func (m *MockSupervisor) requireLive(sessionID string) error {
	session, ok := m.Sessions[sessionID]
	if !ok || !session.Live() {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return nil
}

// MockWorktreeManager is a test double for domain.WorktreeManager.
type MockWorktreeManager struct {
	CreateErr error
	Created   []string
	Removed   []string
}

// Create records the request and returns a fake path.
func (m *MockWorktreeManager) Create(id, _, _ string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, id)
	return "/tmp/worktrees/" + id, nil
}

// Remove records the request.
func (m *MockWorktreeManager) Remove(id string) error {
	m.Removed = append(m.Removed, id)
	return nil
}

// StaticConfigLoader returns a fixed config from Load.
type StaticConfigLoader struct {
	Config *domain.Config
	Err    error
}

// Load returns the configured config.
func (l *StaticConfigLoader) Load() (*domain.Config, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Config, nil
}
