package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"orchd/internal/app"
	"orchd/internal/usecase"
)

// newLaunchCommand creates the launch command.
func newLaunchCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Agent string
		Model string
	}

	cmd := &cobra.Command{
		Use:   "launch <task-id>",
		Short: "Spawn an agent session for a task",
		Long: `Spawn a detached agent session for a pending or blocked task and
move the task to in-progress.

Examples:
  orchd launch task-20260115-093251-fix-login
  orchd launch task-20260115-093251-fix-login --agent codex --model o3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.LaunchTask().Execute(cmd.Context(), usecase.LaunchTaskInput{
				TaskID: args[0],
				Agent:  opts.Agent,
				Model:  opts.Model,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Launched %s (session %s)\n", out.Task.ID, out.Session.ID)
			if out.WorktreePath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Worktree: %s\n", out.WorktreePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", "", "Agent override for this launch")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model override for this launch")
	return cmd
}

// newKillCommand creates the kill command.
func newKillCommand(c *app.Container) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "kill <task-id>",
		Short: "Kill a task's agent session",
		Long:  "Kill the task's session and move the task to blocked.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.KillSession().Execute(usecase.KillSessionInput{
				TaskID: args[0],
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Killed session; %s is now %s\n", out.Task.ID, out.Task.State.Display())
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded on the blocked task")
	return cmd
}

// newSessionsCommand creates the sessions command.
func newSessionsCommand(c *app.Container) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List tracked agent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListSessions().Execute()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), out.Sessions)
			}
			if len(out.Sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tTASK\tAGENT\tACTIVITY\tSTARTED")
			for _, s := range out.Sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.TaskID, s.Agent, s.Activity.Display(), humanize.Time(s.StartedAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// newAttachCommand creates the attach command.
func newAttachCommand(c *app.Container) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "attach <task-id|session-id>",
		Short: "Attach the terminal to a live session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.AttachSession().Execute(usecase.AttachSessionInput{Ref: args[0]})
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out.Argv, " "))
				return nil
			}
			attach := exec.Command(out.Argv[0], out.Argv[1:]...) //nolint:gosec // argv comes from the supervisor
			attach.Stdin = os.Stdin
			attach.Stdout = os.Stdout
			attach.Stderr = os.Stderr
			return attach.Run()
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the attach command instead of running it")
	return cmd
}

// newKillAllCommand creates the kill-all command.
func newKillAllCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill-all",
		Short: "Kill every live agent session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.KillAllSessions().Execute()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Killed %d session(s)\n", len(out.Killed))
			for _, f := range out.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "session %s: %v\n", f.SessionID, f.Err)
			}
			if len(out.Failures) > 0 {
				return fmt.Errorf("%d session(s) could not be killed", len(out.Failures))
			}
			return nil
		},
	}
	return cmd
}

// newSendCommand creates the send command.
func newSendCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <task-id|session-id> <text>",
		Short: "Send text to a live session",
		Long: `Send text to a live session followed by Enter, typically to answer
an agent's prompt without attaching.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SendInput().Execute(usecase.SendInputInput{Ref: args[0], Keys: args[1]})
		},
	}
	return cmd
}

// newPeekCommand creates the peek command.
func newPeekCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "peek <task-id|session-id>",
		Short: "Show recent output of a live session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.PeekSession().Execute(usecase.PeekSessionInput{Ref: args[0], Lines: lines})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 40, "Lines of scrollback to capture")
	return cmd
}
