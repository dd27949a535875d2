package domain

import "strings"

// Priority is the urgency of a task. P0 is the most urgent.
type Priority int

const (
	PriorityP0 Priority = iota
	PriorityP1
	PriorityP2
	PriorityP3
)

// DefaultPriority is used when a record carries no parseable priority.
const DefaultPriority = PriorityP2

// String returns the canonical form ("P0" .. "P3").
func (p Priority) String() string {
	switch p {
	case PriorityP0:
		return "P0"
	case PriorityP1:
		return "P1"
	case PriorityP2:
		return "P2"
	case PriorityP3:
		return "P3"
	default:
		return "P2"
	}
}

// IsValid returns true for P0..P3.
func (p Priority) IsValid() bool {
	return p >= PriorityP0 && p <= PriorityP3
}

// ParsePriority parses a priority value from a record field. Records are
// human-edited, so annotated forms like "P0 (prerequisite)" are accepted;
// anything without a recognizable P0..P3 marker falls back to the default.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == 'P' || s[0] == 'p') {
		switch s[1] {
		case '0':
			return PriorityP0, true
		case '1':
			return PriorityP1, true
		case '2':
			return PriorityP2, true
		case '3':
			return PriorityP3, true
		}
	}
	return DefaultPriority, false
}
