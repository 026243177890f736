package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

// Status returns the status command.
func Status(g *handlers.Globals) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recorded change and workspace",
		Long: `Status prints the persisted lifecycle state:
  - The last change token recorded
  - The recorded workspace and whether the provider still reports it
  - The last lookup snapshot

Examples:
  surfspot status
  surfspot status --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), *g, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
