// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
	"github.com/imamik/surfspot/internal/logging"
)

// Root returns the root command for the surfspot CLI.
//
// The root command owns the flags every subcommand shares: the config file
// and the logging setup.
func Root() *cobra.Command {
	g := &handlers.Globals{}

	cmd := &cobra.Command{
		Use:           "surfspot",
		Short:         "Test every commit on a throwaway cloud workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Path to configuration file (default: surfspot.yaml in the current or a parent directory)")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", logging.FormatAuto, "Log format: auto, text, json")
	cmd.PersistentFlags().StringVar(&g.LogFile, "log-file", "", "Also append log records to this file")

	// Lifecycle commands
	cmd.AddCommand(Run(g))
	cmd.AddCommand(Resume(g))
	cmd.AddCommand(Destroy(g))
	cmd.AddCommand(Status(g))

	// Utility commands
	cmd.AddCommand(Keygen(g))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
