package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/workspace"
)

// Checkpoints provides typed access to the lifecycle's persisted keys.
type Checkpoints struct {
	store Store
}

// NewCheckpoints wraps store.
func NewCheckpoints(store Store) *Checkpoints {
	return &Checkpoints{store: store}
}

// Token returns the last persisted change token.
func (c *Checkpoints) Token(ctx context.Context) (change.Token, bool, error) {
	v, ok, err := c.store.Get(ctx, KeyLastCommit)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return change.Token(v), true, nil
}

// SetToken persists the change token.
func (c *Checkpoints) SetToken(ctx context.Context, token change.Token) error {
	return c.store.Set(ctx, KeyLastCommit, string(token))
}

// PendingToken returns the change token of a workspace whose cycle has
// not committed it yet.
func (c *Checkpoints) PendingToken(ctx context.Context) (change.Token, bool, error) {
	v, ok, err := c.store.Get(ctx, KeyPendingCommit)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return change.Token(v), true, nil
}

// SetPendingToken records the token a running cycle will commit once
// configuration succeeds. An empty token clears it.
func (c *Checkpoints) SetPendingToken(ctx context.Context, token change.Token) error {
	return c.store.Set(ctx, KeyPendingCommit, string(token))
}

// WorkspaceName returns the name of the most recently created workspace.
func (c *Checkpoints) WorkspaceName(ctx context.Context) (string, bool, error) {
	v, ok, err := c.store.Get(ctx, KeyWorkspaceName)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// WorkspaceID returns the id of the most recently created workspace.
func (c *Checkpoints) WorkspaceID(ctx context.Context) (string, bool, error) {
	v, ok, err := c.store.Get(ctx, KeyWorkspaceID)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// SetWorkspace records the created workspace. The name is written first
// so a crash in between still leaves enough to resume by name.
func (c *Checkpoints) SetWorkspace(ctx context.Context, name, id string) error {
	if err := c.store.Set(ctx, KeyWorkspaceName, name); err != nil {
		return err
	}
	return c.store.Set(ctx, KeyWorkspaceID, id)
}

// Lookup returns the last address lookup. A record that exists but does
// not decode or lacks required fields is a StateCorruptionError.
func (c *Checkpoints) Lookup(ctx context.Context) (*workspace.LookupResult, error) {
	v, ok, err := c.store.Get(ctx, KeyWorkspaceQuery)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var result workspace.LookupResult
	if err := json.Unmarshal([]byte(v), &result); err != nil {
		return nil, &workspace.StateCorruptionError{Key: KeyWorkspaceQuery, Err: err}
	}
	if err := result.Validate(); err != nil {
		return nil, &workspace.StateCorruptionError{Key: KeyWorkspaceQuery, Err: err}
	}
	return &result, nil
}

// SetLookup overwrites the last address lookup.
func (c *Checkpoints) SetLookup(ctx context.Context, result workspace.LookupResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lookup result: %w", err)
	}
	return c.store.Set(ctx, KeyWorkspaceQuery, string(data))
}
