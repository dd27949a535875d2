package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// ListSessionsOutput contains the result of listing sessions.
type ListSessionsOutput struct {
	Sessions []*domain.Session
}

// ListSessions is the use case for listing tracked agent sessions.
type ListSessions struct {
	supervisor domain.Supervisor
}

// NewListSessions creates a new ListSessions use case.
func NewListSessions(supervisor domain.Supervisor) *ListSessions {
	return &ListSessions{supervisor: supervisor}
}

// Execute returns a snapshot of all tracked sessions, newest first.
func (uc *ListSessions) Execute() (*ListSessionsOutput, error) {
	sessions, err := uc.supervisor.List()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return &ListSessionsOutput{Sessions: sessions}, nil
}
