package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	root := t.TempDir()
	cfg, err := NewLoaderWithRoot(root).Load()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "claude", cfg.DefaultAgent)
	assert.Equal(t, 10, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Worktree.Enabled)

	// Builtin agents are present and launchable.
	for _, name := range []string{"claude", "codex", "gemini", "terminal"} {
		agent, ok := cfg.Agents[name]
		require.True(t, ok, "missing builtin agent %s", name)
		assert.NotEmpty(t, agent.CommandTemplate)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	root := t.TempDir()
	content := `
default_agent = "codex"

[reconcile]
interval_seconds = 30

[log]
level = "debug"

[worktree]
enabled = true
base_branch = "develop"

[agents.claude]
command = "claude"
command_template = "{{.Command}} {{.Prompt}}"

[agents.custom]
command = "mytool"
command_template = "{{.Command}} run {{.Prompt}}"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	cfg, err := NewLoaderWithRoot(root).Load()
	require.NoError(t, err)

	assert.Equal(t, "codex", cfg.DefaultAgent)
	assert.Equal(t, 30, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Worktree.Enabled)
	assert.Equal(t, "develop", cfg.Worktree.BaseBranch)

	// A user agent section replaces the builtin wholesale.
	assert.Equal(t, "{{.Command}} {{.Prompt}}", cfg.Agents["claude"].CommandTemplate)
	// New agents join the builtins.
	assert.Equal(t, "mytool", cfg.Agents["custom"].Command)
	_, ok := cfg.Agents["codex"]
	assert.True(t, ok, "untouched builtins survive the merge")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("not [valid toml"), 0o644))

	_, err := NewLoaderWithRoot(root).Load()
	assert.Error(t, err)
}

func TestAgentNamesSorted(t *testing.T) {
	cfg := NewDefaultConfig(t.TempDir())
	names := cfg.AgentNames()
	assert.Equal(t, []string{"claude", "codex", "gemini", "terminal"}, names)
}
