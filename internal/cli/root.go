// Package cli provides the command-line interface for orchd.
package cli

import (
	"github.com/spf13/cobra"

	"orchd/internal/app"
)

// Command group IDs.
const (
	groupTask    = "task"
	groupSession = "session"
	groupServe   = "serve"
)

// NewRootCommand creates the root command for orchd.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "orchd",
		Short: "Agent task queue and session supervisor",
		Long: `orchd manages a durable queue of agent tasks and the terminal
sessions that work on them. Tasks live as markdown records partitioned
by state (pending, in-progress, blocked, completed); launching a task
spawns a detached agent session in tmux, and the reconcile loop folds
session outcomes back into task state.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return launchTUI(c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupSession, Title: "Session Management:"},
		&cobra.Group{ID: groupServe, Title: "Supervision:"},
	)

	for _, cmd := range []*cobra.Command{
		newNewCommand(c),
		newListCommand(c),
		newShowCommand(c),
		newMoveCommand(c),
		newRmCommand(c),
	} {
		cmd.GroupID = groupTask
		root.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		newLaunchCommand(c),
		newFleetCommand(c),
		newKillCommand(c),
		newKillAllCommand(c),
		newSessionsCommand(c),
		newAttachCommand(c),
		newSendCommand(c),
		newPeekCommand(c),
	} {
		cmd.GroupID = groupSession
		root.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		newServeCommand(c),
		newTUICommand(c),
	} {
		cmd.GroupID = groupServe
		root.AddCommand(cmd)
	}

	return root
}
