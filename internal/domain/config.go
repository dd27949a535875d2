package domain

import "slices"

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Agents         map[string]Agent `toml:"agents"`                    // Agent definitions from [agents.<name>]
	Root           string           `toml:"root,omitempty"`            // State root directory (default ~/.orchd)
	DefaultAgent   string           `toml:"default_agent,omitempty"`   // Agent used when a task names none
	DefaultWorkdir string           `toml:"default_workdir,omitempty"` // Working directory for launches
	Reconcile      ReconcileConfig  `toml:"reconcile"`
	Log            LogConfig        `toml:"log"`
	Worktree       WorktreeConfig   `toml:"worktree"`
}

// Agent holds one agent capability from [agents.<name>] sections.
// The command template is a text/template over PlanData; an unset model
// must be handled inside the template ({{if .Model}}...) so that no empty
// argument or leftover template text ever reaches the command line.
type Agent struct {
	Command         string `toml:"command,omitempty"`          // Executable name (e.g. "claude")
	CommandTemplate string `toml:"command_template,omitempty"` // Full command line template
	DefaultModel    string `toml:"default_model,omitempty"`    // Used when the task's model is unset
	Description     string `toml:"description,omitempty"`
}

// ReconcileConfig holds settings for the reconciliation loop.
type ReconcileConfig struct {
	IntervalSeconds int `toml:"interval_seconds,omitempty"` // Tick interval (default 10)
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // debug, info, warn, error
}

// WorktreeConfig holds per-session git worktree isolation settings.
type WorktreeConfig struct {
	BaseBranch string `toml:"base_branch,omitempty"` // Branch worktrees start from (default "main")
	Enabled    bool   `toml:"enabled,omitempty"`
}

// AgentNames returns the sorted names of configured agents.
func (c *Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
