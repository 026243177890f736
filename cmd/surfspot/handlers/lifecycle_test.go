package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/surfspot/internal/config"
	testutil "github.com/imamik/surfspot/internal/testing"
	"github.com/imamik/surfspot/internal/util/keygen"
	"github.com/imamik/surfspot/internal/workspace"
)

const leftName = "surftest-k3x9q"

func TestResume(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.checkpoints(t).SetWorkspace(context.Background(), leftName, "w-7"))

	h.provider.
		Named(testutil.NewRecord("w-7").WithName(leftName).Build()).
		GetSequence(testutil.NewRecord("w-7").WithName(leftName).WithAddress("198.51.100.4").Build())

	require.NoError(t, Resume(context.Background(), h.globals()))

	assert.Equal(t, []string{
		"find " + leftName,
		"get w-7",
		"configure 198.51.100.4 ok",
		"delete w-7",
	}, h.trace.Calls())
	assert.Contains(t, h.out.String(), "198.51.100.4")
}

func TestResume_NothingRecorded(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Resume(context.Background(), h.globals()))

	assert.Contains(t, h.out.String(), "Nothing to resume")
	assert.Empty(t, h.trace.Calls())
}

func TestResume_WorkspaceGone(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.checkpoints(t).SetWorkspace(context.Background(), leftName, "w-7"))

	require.NoError(t, Resume(context.Background(), h.globals()))

	assert.Contains(t, h.out.String(), "Nothing to resume")
	assert.Equal(t, []string{"find " + leftName}, h.trace.Calls())
}

func TestDestroy(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.checkpoints(t).SetWorkspace(context.Background(), leftName, "w-7"))
	h.provider.Named(testutil.NewRecord("w-7").WithName(leftName).Build())

	require.NoError(t, Destroy(context.Background(), h.globals()))

	assert.Equal(t, []string{"find " + leftName, "delete w-7"}, h.trace.Calls())
	assert.Contains(t, h.out.String(), "Workspace "+leftName+" (w-7) deleted")
}

func TestDestroy_NothingRecorded(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Destroy(context.Background(), h.globals()))

	assert.Contains(t, h.out.String(), "Nothing to destroy")
	assert.Empty(t, h.trace.Calls())
}

func TestDestroy_DeleteFails(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.checkpoints(t).SetWorkspace(context.Background(), leftName, "w-7"))
	h.provider.
		Named(testutil.NewRecord("w-7").WithName(leftName).Build()).
		DeleteReturns(&workspace.ProviderError{Op: "delete", StatusCode: 500})

	err := Destroy(context.Background(), h.globals())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destroy failed")
}

func TestStatus_Text(t *testing.T) {
	h := newHarness(t)
	cp := h.checkpoints(t)
	require.NoError(t, cp.SetToken(context.Background(), "def"))
	require.NoError(t, cp.SetWorkspace(context.Background(), leftName, "w-7"))
	h.provider.Named(testutil.NewRecord("w-7").WithName(leftName).WithAddress("198.51.100.4").Build())

	require.NoError(t, Status(context.Background(), h.globals(), false))

	out := h.out.String()
	assert.Contains(t, out, "Last change: def")
	assert.Contains(t, out, leftName+" (w-7, live)")
	assert.Contains(t, out, "Address:     198.51.100.4")
}

func TestStatus_Empty(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Status(context.Background(), h.globals(), false))

	out := h.out.String()
	assert.Contains(t, out, "Last change: (none)")
	assert.Contains(t, out, "(none recorded)")
}

func TestStatus_JSON(t *testing.T) {
	h := newHarness(t)
	cp := h.checkpoints(t)
	require.NoError(t, cp.SetToken(context.Background(), "def"))
	require.NoError(t, cp.SetWorkspace(context.Background(), leftName, "w-7"))
	require.NoError(t, cp.SetLookup(context.Background(), workspace.LookupResult{
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Name:        leftName,
		WorkspaceID: "w-7",
		IP:          "198.51.100.4",
	}))

	require.NoError(t, Status(context.Background(), h.globals(), true))

	var got StatusOutput
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, "def", got.Token)
	require.NotNil(t, got.Workspace)
	assert.Equal(t, leftName, got.Workspace.Name)
	assert.False(t, got.Workspace.Live)
	require.NotNil(t, got.Lookup)
	assert.Equal(t, "198.51.100.4", got.Lookup.Address)
}

func TestKeygen_ExplicitPathWithoutConfig(t *testing.T) {
	h := newHarness(t)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")

	require.NoError(t, Keygen(context.Background(), Globals{}, KeygenOptions{KeyPath: keyPath}))

	out := h.out.String()
	assert.Contains(t, out, "Generated key pair at "+keyPath)
	assert.Contains(t, out, "ssh-ed25519 ")
	assert.Contains(t, out, "provider portal")
	assert.FileExists(t, keyPath)
	assert.FileExists(t, keygen.PublicKeyPath(keyPath))

	h.out.Reset()
	require.NoError(t, Keygen(context.Background(), Globals{}, KeygenOptions{KeyPath: keyPath}))
	assert.Contains(t, h.out.String(), "Using existing key pair")
}

func TestKeygen_PathFromConfig(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Keygen(context.Background(), h.globals(), KeygenOptions{}))

	assert.FileExists(t, filepath.Join(h.dir, "keys", "id_ed25519"))
}

func TestKeygen_UploadRequiresHCloud(t *testing.T) {
	h := newHarness(t)

	err := Keygen(context.Background(), h.globals(), KeygenOptions{Upload: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--upload requires provider")
}

func TestKeygen_Upload(t *testing.T) {
	h := newHarness(t)
	hcloudConfig := `provider: hcloud
hcloud:
  ssh_key_name: surfspot-ci
workspace:
  template: template.json
change:
  repository: example/service
ssh:
  user: root
  private_key: keys/id_ed25519
`
	require.NoError(t, os.WriteFile(h.configPath, []byte(hcloudConfig), 0o600))
	t.Setenv(config.EnvHCloudToken, "hc-token")

	origUploader := newKeyUploader
	defer func() { newKeyUploader = origUploader }()
	up := &fakeUploader{created: true}
	newKeyUploader = func(*config.Config) sshKeyUploader { return up }

	require.NoError(t, Keygen(context.Background(), h.globals(), KeygenOptions{Upload: true}))

	assert.Equal(t, "surfspot-ci", up.name)
	assert.Contains(t, up.key, "ssh-ed25519 ")
	assert.Contains(t, h.out.String(), `Public key registered as "surfspot-ci"`)
}

func TestKeygen_EnsureFails(t *testing.T) {
	h := newHarness(t)

	origEnsure := ensureKeyPair
	defer func() { ensureKeyPair = origEnsure }()
	ensureKeyPair = func(string, string) (*keygen.KeyPair, bool, error) {
		return nil, false, errors.New("incomplete key pair")
	}

	err := Keygen(context.Background(), h.globals(), KeygenOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prepare key pair")
}
