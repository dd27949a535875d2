package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// PeekSessionInput contains the parameters for peeking at session output.
type PeekSessionInput struct {
	Ref   string // Task id or session id
	Lines int    // Lines of scrollback to capture (default 40)
}

// PeekSessionOutput contains the captured output.
type PeekSessionOutput struct {
	Content string
}

// PeekSession is the use case for inspecting a live session's recent
// output without attaching to it.
type PeekSession struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
}

// NewPeekSession creates a new PeekSession use case.
func NewPeekSession(store domain.TaskStore, supervisor domain.Supervisor) *PeekSession {
	return &PeekSession{store: store, supervisor: supervisor}
}

// Execute captures the tail of the session's pane.
func (uc *PeekSession) Execute(in PeekSessionInput) (*PeekSessionOutput, error) {
	sessionID, err := resolveSessionID(uc.store, in.Ref)
	if err != nil {
		return nil, err
	}
	lines := in.Lines
	if lines <= 0 {
		lines = 40
	}
	content, err := uc.supervisor.Peek(sessionID, lines)
	if err != nil {
		return nil, fmt.Errorf("peek session %s: %w", sessionID, err)
	}
	return &PeekSessionOutput{Content: content}, nil
}
