package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// AttachSessionInput contains the parameters for attaching to a session.
type AttachSessionInput struct {
	Ref string // Task id or session id
}

// AttachSessionOutput contains the command to exec for attachment.
type AttachSessionOutput struct {
	Argv []string
}

// AttachSession is the use case for resolving the terminal command that
// attaches the operator to a live agent session.
type AttachSession struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
}

// NewAttachSession creates a new AttachSession use case.
func NewAttachSession(store domain.TaskStore, supervisor domain.Supervisor) *AttachSession {
	return &AttachSession{store: store, supervisor: supervisor}
}

// Execute returns the argv the caller should exec to attach.
func (uc *AttachSession) Execute(in AttachSessionInput) (*AttachSessionOutput, error) {
	sessionID, err := resolveSessionID(uc.store, in.Ref)
	if err != nil {
		return nil, err
	}
	argv, err := uc.supervisor.AttachCommand(sessionID)
	if err != nil {
		return nil, fmt.Errorf("attach session %s: %w", sessionID, err)
	}
	return &AttachSessionOutput{Argv: argv}, nil
}
