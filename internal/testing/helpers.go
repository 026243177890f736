package testing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/imamik/surfspot/internal/inventory"
	"github.com/imamik/surfspot/internal/state"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// FileCheckpoints returns checkpoints backed by a file store in a
// temporary directory, and the store itself.
func FileCheckpoints(t *testing.T) (*state.Checkpoints, *state.FileStore) {
	t.Helper()
	store, err := state.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return state.NewCheckpoints(store), store
}

// TempInventory returns an inventory file in a temporary directory.
func TempInventory(t *testing.T) *inventory.File {
	t.Helper()
	return inventory.New(filepath.Join(t.TempDir(), "inventory.ini"), inventory.DefaultGroup)
}
