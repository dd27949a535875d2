package domain

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/gosimple/slug"
)

// sessionPrefix is prepended to session ids to form tmux session names,
// so orchd sessions can be told apart from anything else on the server.
const sessionPrefix = "orch-"

const maxSlugLen = 30

// NewTaskID generates a task id from the creation time and title.
// Format: task-20260115-093251-fix-login-flow
func NewTaskID(now time.Time, title string) string {
	s := slug.Make(title)
	if s == "" {
		s = "task"
	}
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
		// Don't end on a dangling hyphen after truncation
		for len(s) > 0 && s[len(s)-1] == '-' {
			s = s[:len(s)-1]
		}
	}
	return "task-" + now.Format("20060102-150405") + "-" + s
}

var unsafeSessionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// TmuxSessionName returns the tmux session name for a session id.
// tmux rejects some characters in session names, so the id is sanitized.
func TmuxSessionName(sessionID string) string {
	name := sessionPrefix + unsafeSessionChars.ReplaceAllString(sessionID, "-")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

// WorktreeBranch returns the git branch name for an isolated worktree.
func WorktreeBranch(id string) string {
	return "session/" + id
}

// RecordFileName returns the record file name for a task id.
func RecordFileName(taskID string) string {
	return taskID + ".md"
}

// SessionScriptPath returns the path to a session launch script.
func SessionScriptPath(rootDir, sessionID string) string {
	return filepath.Join(rootDir, "scripts", sessionID+".sh")
}

// SessionExitPath returns the path to a session exit-status file.
func SessionExitPath(rootDir, sessionID string) string {
	return filepath.Join(rootDir, "scripts", sessionID+".exit")
}

// SessionRegistryPath returns the path to the supervisor's session registry.
func SessionRegistryPath(rootDir string) string {
	return filepath.Join(rootDir, "sessions.json")
}

// TaskLogPath returns the path to a task log file.
func TaskLogPath(rootDir, taskID string) string {
	return filepath.Join(rootDir, "logs", taskID+".log")
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(rootDir string) string {
	return filepath.Join(rootDir, "logs", "orchd.log")
}

// TmuxSocketPath returns the path to the dedicated tmux socket.
func TmuxSocketPath(rootDir string) string {
	return filepath.Join(rootDir, "tmux.sock")
}

// QueuePath returns the path to the queue root directory.
func QueuePath(rootDir string) string {
	return filepath.Join(rootDir, "queue")
}

// WorktreePath returns the path to an isolated worktree.
func WorktreePath(rootDir, id string) string {
	return filepath.Join(rootDir, "worktrees", id)
}
