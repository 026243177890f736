package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/surfspot/internal/provisioning"
)

// Resume handles the resume command.
//
// It picks up the workspace recorded by an aborted cycle, waits for its
// address, configures it and deletes it. Nothing recorded is not an error.
func Resume(ctx context.Context, g Globals) error {
	cfg, closer, err := loadConfig(g)
	defer func() { _ = closer.Close() }()
	if err != nil {
		return err
	}

	orc, err := buildOrchestrator(ctx, cfg, buildOptions{configure: true})
	if err != nil {
		return err
	}

	report, err := orc.Resume(ctx)
	if errors.Is(err, provisioning.ErrNothingToResume) {
		_, _ = fmt.Fprintln(stdout, "Nothing to resume: no recorded workspace exists")
		return nil
	}
	printReport(report, err)
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	return nil
}
