package state

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/workspace"
)

func newTestCheckpoints(t *testing.T) (*Checkpoints, *FileStore) {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewCheckpoints(s), s
}

func TestCheckpoints_Token(t *testing.T) {
	t.Parallel()

	cp, _ := newTestCheckpoints(t)
	ctx := context.Background()

	_, ok, err := cp.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cp.SetToken(ctx, change.Token("abc")))
	tok, ok, err := cp.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, change.Token("abc"), tok)
}

func TestCheckpoints_PendingToken(t *testing.T) {
	t.Parallel()

	cp, _ := newTestCheckpoints(t)
	ctx := context.Background()

	require.NoError(t, cp.SetPendingToken(ctx, change.Token("def")))
	tok, ok, err := cp.PendingToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, change.Token("def"), tok)

	require.NoError(t, cp.SetPendingToken(ctx, ""))
	_, ok, err = cp.PendingToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckpoints_Workspace(t *testing.T) {
	t.Parallel()

	cp, _ := newTestCheckpoints(t)
	ctx := context.Background()

	require.NoError(t, cp.SetWorkspace(ctx, "surftest-abcde", "w-1"))

	name, ok, err := cp.WorkspaceName(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "surftest-abcde", name)

	id, ok, err := cp.WorkspaceID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "w-1", id)
}

func TestCheckpoints_Lookup(t *testing.T) {
	t.Parallel()

	cp, s := newTestCheckpoints(t)
	ctx := context.Background()

	got, err := cp.Lookup(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := &workspace.Record{ID: "w-1", Name: "surftest-abcde", Status: "running", Created: created, Address: "203.0.113.9"}
	require.NoError(t, cp.SetLookup(ctx, workspace.NewLookupResult(rec, created.Add(time.Minute))))

	got, err = cp.Lookup(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "203.0.113.9", got.IP)
	assert.Equal(t, "w-1", got.WorkspaceID)

	raw, ok, err := s.Get(ctx, KeyWorkspaceQuery)
	require.NoError(t, err)
	require.True(t, ok)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	for _, field := range []string{"timestamp", "name", "workspace_id", "status", "created", "fqdn", "ip"} {
		assert.Contains(t, doc, field)
	}
}

func TestCheckpoints_LookupCorruption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"malformed json", `{"ip": "203.0.113.9"`},
		{"missing workspace id", `{"ip": "203.0.113.9"}`},
		{"missing ip", `{"workspace_id": "w-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cp, s := newTestCheckpoints(t)
			require.NoError(t, s.Set(context.Background(), KeyWorkspaceQuery, tt.value))

			got, err := cp.Lookup(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, workspace.IsStateCorruption(err))
		})
	}
}
