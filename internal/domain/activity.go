package domain

// Activity is the semantic liveness classification of a session. It is
// derived from session output and exit status, not from raw process
// existence alone.
type Activity string

const (
	ActivityIdle       Activity = "idle"        // Process alive, no recent output
	ActivityWorking    Activity = "working"     // Process alive, output changing
	ActivityNeedsInput Activity = "needs_input" // Process alive, waiting on the operator
	ActivityDone       Activity = "done"        // Process exited cleanly
	ActivityError      Activity = "error"       // Process exited nonzero or vanished
)

// IsTerminal returns true if the activity means the session process has ended.
func (a Activity) IsTerminal() bool {
	return a == ActivityDone || a == ActivityError
}

// Display returns a human-readable representation of the activity.
func (a Activity) Display() string {
	switch a {
	case ActivityIdle:
		return "Idle"
	case ActivityWorking:
		return "Working"
	case ActivityNeedsInput:
		return "Needs Input"
	case ActivityDone:
		return "Done"
	case ActivityError:
		return "Error"
	default:
		return string(a)
	}
}
