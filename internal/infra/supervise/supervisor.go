// Package supervise tracks agent process sessions spawned in tmux.
//
// The supervisor is the sole owner of process state: task records and
// clients only ever hold session id strings and resolve them through the
// Supervisor interface. Tracked sessions survive restarts via a JSON
// registry under the state root.
package supervise

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"

	"orchd/internal/domain"
)

// workingWindow is how long after the last observed output change a quiet
// session still counts as Working rather than Idle.
const workingWindow = 30 * time.Second

// captureLines is how much pane scrollback a poll inspects.
const captureLines = 50

// TmuxClient is the subset of tmux operations the supervisor needs.
type TmuxClient interface {
	Start(ctx context.Context, name, dir, command string) error
	Has(name string) (bool, error)
	Kill(name string) error
	CapturePane(name string, lines int) (string, error)
	SendKeys(name, keys string) error
	PanePID(name string) (int, error)
	AttachArgs(name string) []string
}

// sessionRecord is the persisted per-session state. The pane PID and
// output fingerprint are supervisor internals and never leave this package.
type sessionRecord struct {
	Session    domain.Session `json:"session"`
	TmuxName   string         `json:"tmuxName"`
	Dir        string         `json:"dir"`
	LastHash   string         `json:"lastHash,omitempty"`
	LastChange time.Time      `json:"lastChange,omitempty"`
	PanePID    int32          `json:"panePid,omitempty"`
}

// Supervisor implements domain.Supervisor over a tmux backend.
// Fields are ordered to minimize memory padding.
type Supervisor struct {
	sessions map[string]*sessionRecord
	spawning map[string]struct{}
	tmux     TmuxClient
	clock    domain.Clock
	logger   domain.Logger
	rootDir  string
	mu       sync.Mutex
}

// New creates a Supervisor rooted at the state directory. Previously
// tracked sessions are reloaded from the registry so a restart doesn't
// orphan live processes.
func New(rootDir string, tmuxClient TmuxClient, clock domain.Clock, logger domain.Logger) (*Supervisor, error) {
	s := &Supervisor{
		rootDir:  rootDir,
		tmux:     tmuxClient,
		clock:    clock,
		logger:   logger,
		sessions: make(map[string]*sessionRecord),
		spawning: make(map[string]struct{}),
	}
	if err := s.loadRegistry(); err != nil {
		return nil, err
	}
	return s, nil
}

// Ensure Supervisor implements domain.Supervisor.
var _ domain.Supervisor = (*Supervisor)(nil)

// Spawn starts a detached session for the task described by the spec.
// It returns once tmux has accepted the process, not when it completes.
func (s *Supervisor) Spawn(ctx context.Context, spec *domain.LaunchSpec) (*domain.Session, error) {
	// Reserving the task id under the lock closes the window between the
	// live-session check and registry insertion: a second Spawn for the
	// same task fails here even while the first is still talking to tmux.
	if err := s.reserveTask(spec.TaskID); err != nil {
		return nil, err
	}
	defer s.releaseTask(spec.TaskID)

	id := uuid.NewString()
	name := domain.TmuxSessionName(id)

	scriptPath, err := s.writeScript(id, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	if err := os.MkdirAll(spec.Dir, 0o750); err != nil {
		s.removeFiles(id)
		return nil, fmt.Errorf("%w: create workdir: %v", domain.ErrSpawnFailed, err)
	}

	if err := s.tmux.Start(ctx, name, spec.Dir, scriptPath); err != nil {
		s.removeFiles(id)
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	rec := &sessionRecord{
		Session: domain.Session{
			ID:        id,
			TaskID:    spec.TaskID,
			Agent:     spec.Agent,
			Activity:  domain.ActivityIdle,
			StartedAt: s.clock.Now(),
		},
		TmuxName: name,
		Dir:      spec.Dir,
	}
	if pid, err := s.tmux.PanePID(name); err == nil {
		rec.PanePID = int32(pid)
	}

	s.mu.Lock()
	s.sessions[id] = rec
	s.persistLocked()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info(spec.TaskID, "session", fmt.Sprintf("spawned %s (%s)", id, spec.Agent))
	}

	session := rec.Session
	return &session, nil
}

// Poll classifies the session's activity. It never blocks on the process:
// liveness comes from tmux and the pane PID, terminal status from the exit
// file the launch script writes, and Working/Idle/NeedsInput from the pane
// content.
func (s *Supervisor) Poll(sessionID string) (domain.Activity, error) {
	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if !rec.Session.Live() {
		act := rec.Session.Activity
		s.mu.Unlock()
		return act, nil
	}
	name := rec.TmuxName
	pid := rec.PanePID
	lastHash := rec.LastHash
	lastChange := rec.LastChange
	s.mu.Unlock()

	alive, _ := s.tmux.Has(name)
	if alive && pid > 0 {
		// The pane process can exit while tmux keeps the session around
		// (remain-on-exit); trust the process over the session.
		if up, err := process.PidExists(pid); err == nil && !up {
			alive = false
		}
	}

	if !alive {
		act := s.readExitActivity(sessionID)
		s.markEnded(sessionID, act)
		return act, nil
	}

	pane, err := s.tmux.CapturePane(name, captureLines)
	if err != nil {
		return "", fmt.Errorf("poll session %s: %w", sessionID, err)
	}

	act := domain.ActivityIdle
	now := s.clock.Now()
	hash := hashOutput(pane)
	changed := hash != lastHash

	switch {
	case waitsForInput(pane):
		act = domain.ActivityNeedsInput
	case changed:
		act = domain.ActivityWorking
	case !lastChange.IsZero() && now.Sub(lastChange) <= workingWindow:
		act = domain.ActivityWorking
	}

	s.mu.Lock()
	if rec, ok := s.sessions[sessionID]; ok && rec.Session.Live() {
		rec.Session.Activity = act
		if changed {
			rec.LastHash = hash
			rec.LastChange = now
		}
		s.persistLocked()
	}
	s.mu.Unlock()

	return act, nil
}

// Kill terminates a live session. A session that already ended on its own
// reports ErrSessionNotFound; callers treat that as a normal outcome of
// the observe/kill race, not a failure.
func (s *Supervisor) Kill(sessionID string) error {
	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	if !ok || !rec.Session.Live() {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	name := rec.TmuxName
	taskID := rec.Session.TaskID
	s.mu.Unlock()

	alive, _ := s.tmux.Has(name)
	if !alive {
		// Died between the caller's last observation and now.
		s.markEnded(sessionID, s.readExitActivity(sessionID))
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}

	if err := s.tmux.Kill(name); err != nil {
		return fmt.Errorf("kill session %s: %w", sessionID, err)
	}
	s.markEnded(sessionID, domain.ActivityError)

	if s.logger != nil {
		s.logger.Info(taskID, "session", fmt.Sprintf("killed %s", sessionID))
	}
	return nil
}

// Release drops a terminated session's handle and removes its script and
// exit files. Releasing an unknown session is a no-op.
func (s *Supervisor) Release(sessionID string) error {
	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	if ok && rec.Session.Live() {
		s.mu.Unlock()
		return fmt.Errorf("session %s is still live", sessionID)
	}
	delete(s.sessions, sessionID)
	s.persistLocked()
	s.mu.Unlock()

	s.removeFiles(sessionID)
	return nil
}

// Get returns a tracked session by id.
func (s *Supervisor) Get(sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	session := rec.Session
	return &session, nil
}

// List returns a snapshot of all tracked sessions, newest first.
func (s *Supervisor) List() ([]*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]*domain.Session, 0, len(s.sessions))
	for _, rec := range s.sessions {
		session := rec.Session
		sessions = append(sessions, &session)
	}
	sortSessions(sessions)
	return sessions, nil
}

// Send forwards keys to a live session.
func (s *Supervisor) Send(sessionID, keys string) error {
	name, err := s.liveName(sessionID)
	if err != nil {
		return err
	}
	return s.tmux.SendKeys(name, keys)
}

// Peek captures the last N lines of session output.
func (s *Supervisor) Peek(sessionID string, lines int) (string, error) {
	name, err := s.liveName(sessionID)
	if err != nil {
		return "", err
	}
	return s.tmux.CapturePane(name, lines)
}

// AttachCommand returns the argv to attach a terminal to the session.
func (s *Supervisor) AttachCommand(sessionID string) ([]string, error) {
	name, err := s.liveName(sessionID)
	if err != nil {
		return nil, err
	}
	return s.tmux.AttachArgs(name), nil
}

// reserveTask claims the task for an in-flight spawn. The claim fails if
// a live session already exists or another spawn holds the reservation.
func (s *Supervisor) reserveTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inflight := s.spawning[taskID]; inflight {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrSessionRunning)
	}
	for _, rec := range s.sessions {
		if rec.Session.TaskID == taskID && rec.Session.Live() {
			return fmt.Errorf("task %s: %w", taskID, domain.ErrSessionRunning)
		}
	}
	s.spawning[taskID] = struct{}{}
	return nil
}

func (s *Supervisor) releaseTask(taskID string) {
	s.mu.Lock()
	delete(s.spawning, taskID)
	s.mu.Unlock()
}

func (s *Supervisor) liveName(sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok || !rec.Session.Live() {
		return "", fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return rec.TmuxName, nil
}

// markEnded records a terminal activity for the session.
func (s *Supervisor) markEnded(sessionID string, act domain.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok || !rec.Session.Live() {
		return
	}
	rec.Session.Activity = act
	rec.Session.EndedAt = s.clock.Now()
	s.persistLocked()
}

// readExitActivity classifies a dead session from its exit-status file.
// A missing file means the process vanished without running its exit trap
// (killed externally), which counts as an error.
func (s *Supervisor) readExitActivity(sessionID string) domain.Activity {
	content, err := os.ReadFile(domain.SessionExitPath(s.rootDir, sessionID)) //nolint:gosec // Path is built from the root and a uuid
	if err != nil {
		return domain.ActivityError
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || code != 0 {
		return domain.ActivityError
	}
	return domain.ActivityDone
}

// launchScript wraps the agent command so the exit status is captured even
// on signals. An EXIT trap survives normal termination, Ctrl+C, and
// SIGTERM; only SIGKILL (or losing the whole terminal server) leaves no
// exit file behind.
const launchScript = `#!/bin/bash
set -o pipefail

on_exit() {
  echo "$?" > "{{.ExitFile}}"
}
trap on_exit EXIT
trap 'exit 130' INT
trap 'exit 143' TERM
trap 'exit 129' HUP
{{range $key, $value := .Env}}
export {{$key}}={{$value}}
{{end}}
{{.Command}}
`

type launchScriptData struct {
	Env      map[string]string
	ExitFile string
	Command  string
}

func (s *Supervisor) writeScript(sessionID string, spec *domain.LaunchSpec) (string, error) {
	scriptsDir := filepath.Join(s.rootDir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o750); err != nil {
		return "", fmt.Errorf("create scripts directory: %w", err)
	}

	tmpl := template.Must(template.New("launch").Parse(launchScript))
	var b strings.Builder
	err := tmpl.Execute(&b, launchScriptData{
		ExitFile: domain.SessionExitPath(s.rootDir, sessionID),
		Command:  spec.Command,
		Env:      spec.Env,
	})
	if err != nil {
		return "", fmt.Errorf("render launch script: %w", err)
	}

	path := domain.SessionScriptPath(s.rootDir, sessionID)
	// The script must be executable for tmux to run it.
	if err := os.WriteFile(path, []byte(b.String()), 0o700); err != nil { //nolint:gosec // executable launch script
		return "", fmt.Errorf("write launch script: %w", err)
	}
	return path, nil
}

func (s *Supervisor) removeFiles(sessionID string) {
	_ = os.Remove(domain.SessionScriptPath(s.rootDir, sessionID))
	_ = os.Remove(domain.SessionExitPath(s.rootDir, sessionID))
}

// persistLocked writes the registry. Callers must hold s.mu.
func (s *Supervisor) persistLocked() {
	content, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return
	}
	path := domain.SessionRegistryPath(s.rootDir)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil { //nolint:gosec // registry readable by the operator
		return
	}
	_ = os.Rename(tmpPath, path)
}

func (s *Supervisor) loadRegistry() error {
	content, err := os.ReadFile(domain.SessionRegistryPath(s.rootDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session registry: %w", err)
	}
	if err := json.Unmarshal(content, &s.sessions); err != nil {
		return fmt.Errorf("parse session registry: %w", err)
	}
	if s.sessions == nil {
		s.sessions = make(map[string]*sessionRecord)
	}
	return nil
}

func hashOutput(pane string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pane))
	return strconv.FormatUint(h.Sum64(), 16)
}

func sortSessions(sessions []*domain.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.After(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
