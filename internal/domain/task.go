// Package domain contains core business entities and interfaces.
package domain

import "time"

// Task represents a unit of work handed to an agent session.
// Fields are ordered to minimize memory padding.
type Task struct {
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
	ID            string    `json:"id"`                      // Stable identifier, assigned at creation
	Title         string    `json:"title"`                   // Short human label (single line)
	Description   string    `json:"description,omitempty"`   // Free-form body handed to the agent
	Agent         string    `json:"agent"`                   // Capability tag (claude, codex, ...)
	Model         string    `json:"model,omitempty"`         // Model override (empty = unset)
	Workdir       string    `json:"workdir,omitempty"`       // Working directory override
	BlockedReason string    `json:"blockedReason,omitempty"` // Present only while blocked
	SessionID     string    `json:"sessionID,omitempty"`     // Live session reference (empty if none)
	Extra         []string  `json:"-"`                       // Unrecognized header lines, preserved verbatim
	State         TaskState `json:"state"`                   // Derived from partition membership on read
	Priority      Priority  `json:"priority"`
}

// HasSession returns true if the task references a live session.
func (t *Task) HasSession() bool {
	return t.SessionID != ""
}

// Session represents one external process execution bound to a task.
// A session id is allocated per spawn and never reused, even for the
// same task.
// Fields are ordered to minimize memory padding.
type Session struct {
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"` // Zero while the process is live
	ID        string    `json:"id"`
	TaskID    string    `json:"taskID"`
	Agent     string    `json:"agent"`
	Activity  Activity  `json:"activity"`
}

// Live returns true if the session process has not been observed to end.
func (s *Session) Live() bool {
	return s.EndedAt.IsZero()
}
