package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

// Resume returns the resume command.
//
// The resume command finishes a cycle that aborted after its workspace was
// created, without waiting for a new change.
func Resume(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Finish the cycle of the last recorded workspace",
		Long: `Resume continues with the workspace recorded by the last cycle.

The workspace is looked up by its recorded name, then:
  - Its address is polled until the provider reports one
  - The inventory is updated and the playbook is run against it
  - After the grace period the workspace is deleted

If no workspace was recorded, or it no longer exists, there is nothing to
do and the command exits successfully.

Example:
  surfspot resume -c surfspot.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := notifyContext(cmd.Context())
			defer stop()
			return handlers.Resume(ctx, *g)
		},
	}
}
