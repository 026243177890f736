// Package main is the entry point for the surfspot CLI.
//
// surfspot watches a source repository and, for every new commit, creates
// a short-lived cloud workspace, configures it with an Ansible playbook
// and deletes it again.
//
// Commands: run, resume, destroy, status, keygen, version, completion.
//
// For detailed usage information, run:
//
//	surfspot --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/surfspot/cmd/surfspot/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
