package domain

import "errors"

// Domain errors.
//
// Validation class (bad input): ErrUnknownAgent, ErrEmptyTitle,
// ErrEmptyDescription, ErrBlockReasonRequired, ErrSessionAttached,
// ErrInvalidState, ErrInvalidPriority.
// Not-found class (absent references, including benign races):
// ErrTaskNotFound, ErrSessionNotFound.
// Plan class: ErrNoCommandTemplate.
// Spawn class: ErrSessionRunning, ErrSpawnFailed.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSessionNotFound = errors.New("session not found")

	ErrUnknownAgent        = errors.New("unknown agent")
	ErrEmptyTitle          = errors.New("title cannot be empty")
	ErrEmptyDescription    = errors.New("task has no description")
	ErrBlockReasonRequired = errors.New("moving to blocked requires a reason")
	ErrSessionAttached     = errors.New("task has a live session attached")
	ErrInvalidState        = errors.New("invalid task state")
	ErrInvalidPriority     = errors.New("invalid priority")

	ErrNoCommandTemplate = errors.New("agent has no command template")

	ErrSessionRunning = errors.New("task already has a live session")
	ErrSpawnFailed    = errors.New("failed to spawn session")
)
