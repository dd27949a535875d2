package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"orchd/internal/app"
	"orchd/internal/domain"
	"orchd/internal/usecase"
)

var stateStyles = map[domain.TaskState]lipgloss.Style{
	domain.StatePending:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	domain.StateInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	domain.StateBlocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	domain.StateCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// newNewCommand creates the new command for creating tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Agent       string
		Model       string
		Workdir     string
		Priority    string
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new task",
		Long: `Create a new task in the pending queue.

The agent session is not started until the task is launched with
'orchd launch <id>'.

Examples:
  # Create a task
  orchd new --title "Fix login flow" --desc "Session cookie expires too early"

  # Create a high priority task for a specific agent and model
  orchd new --title "Refactor auth" --desc "..." --agent codex --model o3 -p P0`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priority := domain.DefaultPriority
			if opts.Priority != "" {
				parsed, ok := domain.ParsePriority(opts.Priority)
				if !ok {
					return fmt.Errorf("invalid priority %q (use P0..P3)", opts.Priority)
				}
				priority = parsed
			}

			out, err := c.CreateTask().Execute(usecase.CreateTaskInput{
				Title:       opts.Title,
				Description: opts.Description,
				Agent:       opts.Agent,
				Model:       opts.Model,
				Workdir:     opts.Workdir,
				Priority:    priority,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", out.Task.ID, out.Task.Priority)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Task title (required)")
	cmd.Flags().StringVarP(&opts.Description, "desc", "d", "", "Task description (required)")
	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", "", "Agent to use at launch")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model override")
	cmd.Flags().StringVarP(&opts.Workdir, "workdir", "w", "", "Working directory for the session")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "", "Priority P0..P3 (default P2)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("desc")

	return cmd
}

// newListCommand creates the list command.
func newListCommand(c *app.Container) *cobra.Command {
	var stateFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var state *domain.TaskState
			if stateFlag != "" {
				parsed, ok := domain.ParseState(stateFlag)
				if !ok {
					return fmt.Errorf("state %q: %w", stateFlag, domain.ErrInvalidState)
				}
				state = &parsed
			}

			out, err := c.ListTasks().Execute(usecase.ListTasksInput{State: state})
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), out.Tasks)
			}
			renderTaskTable(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&stateFlag, "state", "s", "", "Filter by state (pending, in-progress, blocked, completed)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func renderTaskTable(w io.Writer, tasks []*domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tPRI\tAGENT\tTITLE\tUPDATED")
	for _, t := range tasks {
		agent := t.Agent
		if agent == "" {
			agent = "-"
		}
		state := t.State.Display()
		if style, ok := stateStyles[t.State]; ok {
			state = style.Render(state)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, state, t.Priority, agent, t.Title,
			dimStyle.Render(humanize.Time(t.Updated)))
	}
	_ = tw.Flush()
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := c.Tasks.Get(args[0])
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task %s: %w", args[0], domain.ErrTaskNotFound)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), task)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\n", task.Title)
			fmt.Fprintf(w, "  ID:       %s\n", task.ID)
			fmt.Fprintf(w, "  State:    %s\n", task.State.Display())
			fmt.Fprintf(w, "  Priority: %s\n", task.Priority)
			if task.Agent != "" {
				fmt.Fprintf(w, "  Agent:    %s\n", task.Agent)
			}
			if task.Model != "" {
				fmt.Fprintf(w, "  Model:    %s\n", task.Model)
			}
			if task.Workdir != "" {
				fmt.Fprintf(w, "  Workdir:  %s\n", task.Workdir)
			}
			if task.HasSession() {
				fmt.Fprintf(w, "  Session:  %s\n", task.SessionID)
			}
			if task.BlockedReason != "" {
				fmt.Fprintf(w, "  Blocked:  %s\n", task.BlockedReason)
			}
			fmt.Fprintf(w, "  Created:  %s\n", humanize.Time(task.Created))
			fmt.Fprintf(w, "  Updated:  %s\n", humanize.Time(task.Updated))
			if strings.TrimSpace(task.Description) != "" {
				fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(task.Description))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// newMoveCommand creates the move command.
func newMoveCommand(c *app.Container) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "move <task-id> <state>",
		Short: "Move a task to another state",
		Long: `Move a task between states (pending, in-progress, blocked, completed).

Moving to blocked requires --reason. A task with a live session cannot
be moved; kill the session first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, ok := domain.ParseState(args[1])
			if !ok {
				return fmt.Errorf("state %q: %w", args[1], domain.ErrInvalidState)
			}
			out, err := c.MoveTask().Execute(usecase.MoveTaskInput{
				TaskID: args[0],
				To:     state,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", out.Task.ID, out.Task.State.Display())
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason (required when moving to blocked)")
	return cmd
}

// newRmCommand creates the rm command for deleting tasks.
func newRmCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.DeleteTask().Execute(usecase.DeleteTaskInput{TaskID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
