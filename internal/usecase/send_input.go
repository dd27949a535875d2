package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// SendInputInput contains the parameters for sending text to a session.
type SendInputInput struct {
	Ref  string // Task id or session id
	Keys string
}

// SendInput is the use case for forwarding operator input to a live
// agent session, typically to answer a prompt.
type SendInput struct {
	store      domain.TaskStore
	supervisor domain.Supervisor
}

// NewSendInput creates a new SendInput use case.
func NewSendInput(store domain.TaskStore, supervisor domain.Supervisor) *SendInput {
	return &SendInput{store: store, supervisor: supervisor}
}

// Execute sends the keys to the session followed by a newline.
func (uc *SendInput) Execute(in SendInputInput) error {
	sessionID, err := resolveSessionID(uc.store, in.Ref)
	if err != nil {
		return err
	}
	if err := uc.supervisor.Send(sessionID, in.Keys); err != nil {
		return fmt.Errorf("send to session %s: %w", sessionID, err)
	}
	return nil
}
