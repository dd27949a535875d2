package supervise

import "strings"

// inputMarkers are pane fragments that indicate the agent is blocked on a
// question or permission prompt. Matching is case-insensitive against the
// tail of the captured output so stale prompts higher in the scrollback
// don't trigger false positives.
var inputMarkers = []string{
	"do you want to",
	"do you want",
	"would you like to",
	"(y/n)",
	"[y/n]",
	"yes/no",
	"permission required",
	"waiting for your input",
	"press enter to continue",
	"approve this",
	"allow this",
	"❯ 1.",
}

// inputMarkerTail is how many trailing pane lines are scanned for prompts.
const inputMarkerTail = 10

func waitsForInput(pane string) bool {
	lines := strings.Split(strings.TrimRight(pane, "\n"), "\n")
	if len(lines) > inputMarkerTail {
		lines = lines[len(lines)-inputMarkerTail:]
	}
	tail := strings.ToLower(strings.Join(lines, "\n"))
	for _, marker := range inputMarkers {
		if strings.Contains(tail, marker) {
			return true
		}
	}
	return false
}
