package domain

// TaskState represents the lifecycle state of a task.
// Each state corresponds 1:1 to a queue partition directory, and partition
// membership is the single source of truth: the state is never written into
// the record itself.
type TaskState string

const (
	StatePending    TaskState = "pending"     // Created, awaiting launch
	StateInProgress TaskState = "in-progress" // Agent session running
	StateBlocked    TaskState = "blocked"     // Needs operator attention
	StateCompleted  TaskState = "completed"   // Finished
)

// AllStates returns all valid task states in partition order.
func AllStates() []TaskState {
	return []TaskState{StatePending, StateInProgress, StateBlocked, StateCompleted}
}

// IsValid returns true if the state is a known value.
func (s TaskState) IsValid() bool {
	switch s {
	case StatePending, StateInProgress, StateBlocked, StateCompleted:
		return true
	default:
		return false
	}
}

// Partition returns the queue directory name for this state.
func (s TaskState) Partition() string {
	return string(s)
}

// Display returns a human-readable representation of the state.
func (s TaskState) Display() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateInProgress:
		return "In Progress"
	case StateBlocked:
		return "Blocked"
	case StateCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// ParseState parses a state string. The empty string is not a valid state.
func ParseState(s string) (TaskState, bool) {
	state := TaskState(s)
	return state, state.IsValid()
}
