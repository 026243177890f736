package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command deletes the workspace left behind by an aborted
// cycle.
func Destroy(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete the last recorded workspace",
		Long: `Destroy deletes the workspace recorded by the last cycle.

The workspace is found by its recorded name. If no name was recorded, the
last lookup snapshot is used, but only when the provider still reports a
workspace with the snapshot's name under the snapshot's id. A snapshot that
cannot be read is reported as an error and nothing is deleted.

Example:
  surfspot destroy -c surfspot.yaml

WARNING: The workspace and everything on it is lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), *g)
		},
	}
}
