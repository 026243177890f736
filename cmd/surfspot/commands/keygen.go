package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

// Keygen returns the keygen command.
//
// The keygen command prepares the SSH key the playbook connects with.
func Keygen(g *handlers.Globals) *cobra.Command {
	var opts handlers.KeygenOptions

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create the SSH key pair used to reach workspaces",
		Long: `Keygen creates an ed25519 key pair at the configured ssh.private_key path
unless one already exists, and prints the public key.

The public key must be known to the provider before the first cycle. For
Hetzner Cloud, --upload registers it under hcloud.ssh_key_name.

Examples:
  surfspot keygen
  surfspot keygen --key ~/.ssh/workspace_ed25519
  surfspot keygen --upload`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Keygen(cmd.Context(), *g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.KeyPath, "key", "k", "", "Private key path (default: ssh.private_key from the config)")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "Key comment (default: surfspot)")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "Register the public key with Hetzner Cloud")

	return cmd
}
