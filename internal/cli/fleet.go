package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"orchd/internal/app"
	"orchd/internal/usecase"
)

// newFleetCommand creates the fleet command.
func newFleetCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet <file>",
		Short: "Create a batch of tasks from a YAML file",
		Long: `Create (and optionally launch) a batch of tasks from a fleet file.

File format:
  defaults:
    agent: claude
    priority: P2
    workdir: /path/to/repo
  launch: true
  tasks:
    - title: Fix login flow
      description: Session cookie expires too early
    - title: Add rate limiting
      description: Throttle the public API
      agent: codex
      priority: P1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.LaunchFleet().Execute(cmd.Context(), usecase.LaunchFleetInput{Path: args[0]})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, t := range out.Created {
				fmt.Fprintf(w, "Created %s: %s\n", t.ID, t.Title)
			}
			for _, s := range out.Launched {
				fmt.Fprintf(w, "Launched %s (session %s)\n", s.TaskID, s.ID)
			}
			for _, f := range out.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed %q: %v\n", f.Title, f.Err)
			}
			if len(out.Failures) > 0 {
				return fmt.Errorf("%d fleet entries failed", len(out.Failures))
			}
			return nil
		},
	}
	return cmd
}
