package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

// Run returns the run command.
//
// Without --watch it performs exactly one detect/create/configure/delete
// cycle and exits. With --watch it repeats cycles on the configured
// interval until interrupted.
func Run(g *handlers.Globals) *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a provisioning cycle for the latest change",
		Long: `Run checks the monitored repository for a new commit.

When the commit differs from the last one recorded, a cycle runs:
  - A workspace is created from the request template under a fresh name
  - Its address is polled until the provider reports one
  - The inventory is updated and the playbook is run against it
  - After the grace period the workspace is deleted

If nothing changed the command exits successfully without side effects.
A cycle that aborts leaves its workspace in place and exits non-zero;
use 'surfspot resume' or 'surfspot destroy' to deal with it.

Examples:
  surfspot run -c surfspot.yaml
  surfspot run --watch --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Watch {
				ctx, stop := notifyContext(cmd.Context())
				defer stop()
				return handlers.Run(ctx, *g, opts)
			}
			return handlers.Run(cmd.Context(), *g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Repeat cycles on the configured interval until interrupted")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}
