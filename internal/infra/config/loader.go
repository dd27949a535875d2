// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"orchd/internal/domain"
)

// ConfigFileName is the user configuration file inside the state root.
const ConfigFileName = "config.toml"

// rootEnvVar overrides the state root directory.
const rootEnvVar = "ORCHD_ROOT"

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files in the state root.
type Loader struct {
	rootDir string
}

// NewLoader creates a Loader for the default state root: $ORCHD_ROOT if
// set, otherwise ~/.orchd.
func NewLoader() *Loader {
	return &Loader{rootDir: defaultRoot()}
}

// NewLoaderWithRoot creates a Loader for a specific state root.
// This is useful for testing.
func NewLoaderWithRoot(rootDir string) *Loader {
	return &Loader{rootDir: rootDir}
}

func defaultRoot() string {
	if root := os.Getenv(rootEnvVar); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".orchd"
	}
	return filepath.Join(home, ".orchd")
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig(rootDir string) *domain.Config {
	return &domain.Config{
		Agents:       builtinAgents(),
		Root:         rootDir,
		DefaultAgent: "claude",
		Reconcile:    domain.ReconcileConfig{IntervalSeconds: 10},
		Log:          domain.LogConfig{Level: "info"},
		Worktree:     domain.WorktreeConfig{BaseBranch: "main"},
	}
}

// Load returns the merged configuration. The user file overrides builtin
// defaults; builtin agents stay available unless redefined by name.
func (l *Loader) Load() (*domain.Config, error) {
	base := NewDefaultConfig(l.rootDir)

	path := filepath.Join(l.rootDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var user domain.Config
	if err := toml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return merge(base, &user), nil
}

// merge overlays user settings onto the base config. Agent sections
// replace builtins of the same name wholesale rather than field by field,
// so a user redefinition fully controls the command line.
func merge(base, user *domain.Config) *domain.Config {
	out := *base
	if user.Root != "" {
		out.Root = user.Root
	}
	if user.DefaultAgent != "" {
		out.DefaultAgent = user.DefaultAgent
	}
	if user.DefaultWorkdir != "" {
		out.DefaultWorkdir = user.DefaultWorkdir
	}
	if user.Reconcile.IntervalSeconds > 0 {
		out.Reconcile.IntervalSeconds = user.Reconcile.IntervalSeconds
	}
	if user.Log.Level != "" {
		out.Log.Level = user.Log.Level
	}
	if user.Worktree.BaseBranch != "" {
		out.Worktree.BaseBranch = user.Worktree.BaseBranch
	}
	out.Worktree.Enabled = base.Worktree.Enabled || user.Worktree.Enabled

	agents := make(map[string]domain.Agent, len(base.Agents)+len(user.Agents))
	for name, agent := range base.Agents {
		agents[name] = agent
	}
	for name, agent := range user.Agents {
		agents[name] = agent
	}
	out.Agents = agents
	return &out
}
