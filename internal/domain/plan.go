package domain

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// LaunchSpec is the fully resolved process invocation for a task. It is a
// pure description: nothing is spawned until a supervisor consumes it.
// Fields are ordered to minimize memory padding.
type LaunchSpec struct {
	Env     map[string]string // Extra environment for the session
	TaskID  string
	Agent   string
	Model   string // Resolved model ("" = agent runs with its own default)
	Command string // Full shell command line
	Dir     string // Working directory
}

// PlanData is the data available to agent command templates.
// Fields are ordered to minimize memory padding.
type PlanData struct {
	Command string // Agent executable
	Model   string // Empty when unset; templates must guard with {{if .Model}}
	Prompt  string // Shell-quoted prompt argument
	Title   string
	TaskID  string
}

// PlanLaunch translates a task into a LaunchSpec using the agent capability
// table. It fails when the agent is unknown, the agent has no command
// template, or the task has no description to hand the agent.
//
// Model resolution: task model if set, else the agent's default, else unset.
// An unset model never reaches the command line as an empty argument; the
// template omits the flag entirely.
func PlanLaunch(t *Task, agents map[string]Agent, defaultWorkdir string) (*LaunchSpec, error) {
	agent, ok := agents[t.Agent]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", t.Agent, ErrUnknownAgent)
	}
	if agent.CommandTemplate == "" {
		return nil, fmt.Errorf("agent %q: %w", t.Agent, ErrNoCommandTemplate)
	}
	if strings.TrimSpace(t.Description) == "" {
		return nil, fmt.Errorf("task %s: %w", t.ID, ErrEmptyDescription)
	}

	model := t.Model
	if model == "" {
		model = agent.DefaultModel
	}

	data := PlanData{
		Command: agent.Command,
		Model:   model,
		Prompt:  ShellQuote(t.Description),
		Title:   t.Title,
		TaskID:  t.ID,
	}

	tmpl, err := template.New("cmd").Parse(agent.CommandTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse command template for %q: %w", t.Agent, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render command for %q: %w", t.Agent, err)
	}

	command := strings.TrimSpace(buf.String())
	if command == "" {
		return nil, fmt.Errorf("agent %q: rendered empty command: %w", t.Agent, ErrNoCommandTemplate)
	}

	dir := t.Workdir
	if dir == "" {
		dir = defaultWorkdir
	}

	return &LaunchSpec{
		TaskID:  t.ID,
		Agent:   t.Agent,
		Model:   model,
		Command: command,
		Dir:     dir,
		Env: map[string]string{
			"ORCHD_TASK_ID": t.ID,
		},
	}, nil
}

// ShellQuote wraps s in single quotes, escaping embedded single quotes, so
// task descriptions survive the shell unmodified.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
