package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"orchd/internal/app"
)

// newServeCommand creates the serve command running the reconcile loop.
func newServeCommand(c *app.Container) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconcile loop",
		Long: `Run the reconcile loop until interrupted. Each tick polls every
in-progress task's session and folds the outcome back into task state:
a cleanly finished session completes its task, a failed or lost session
blocks it.

With --once a single reconcile pass runs and the command exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reconciler := c.Reconciler()
			if once {
				reconciler.Tick(cmd.Context())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single reconcile pass and exit")
	return cmd
}
