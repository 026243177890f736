package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/surfspot/internal/logging"
	"github.com/imamik/surfspot/internal/provisioning"
)

// Destroy handles the destroy command.
//
// It deletes the workspace recorded by the last cycle. The recorded name is
// looked up first; the lookup snapshot is used only if it still matches the
// provider's view. Nothing recorded is not an error.
func Destroy(ctx context.Context, g Globals) error {
	cfg, closer, err := loadConfig(g)
	defer func() { _ = closer.Close() }()
	if err != nil {
		return err
	}

	orc, err := buildOrchestrator(ctx, cfg, buildOptions{})
	if err != nil {
		return err
	}

	rec, err := orc.Teardown(ctx)
	if errors.Is(err, provisioning.ErrNothingToResume) {
		_, _ = fmt.Fprintln(stdout, "Nothing to destroy: no recorded workspace exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	logging.Logger().Info("workspace destroyed", "workspace", rec.Name, "id", rec.ID)
	_, _ = fmt.Fprintf(stdout, "Workspace %s (%s) deleted\n", rec.Name, rec.ID)
	return nil
}
