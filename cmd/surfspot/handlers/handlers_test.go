package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/config"
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/logging"
	"github.com/imamik/surfspot/internal/state"
	testutil "github.com/imamik/surfspot/internal/testing"
	"github.com/imamik/surfspot/internal/util/prerequisites"
	"github.com/imamik/surfspot/internal/workspace"
)

const testConfig = `provider: surf
workspace:
  template: template.json
change:
  repository: example/service
lifecycle:
  poll_attempts: 3
  poll_interval: 1ms
  grace_period: 1ms
  watch_interval: 1h
ssh:
  user: tester
  private_key: keys/id_ed25519
`

const testTemplate = `{"name": "", "meta": {"host_name": ""}, "image": "ubuntu"}`

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// harness replaces every factory with in-memory fakes and restores them
// when the test ends. The file state store under dir is real.
type harness struct {
	dir          string
	configPath   string
	trace        *testutil.Trace
	provider     *testutil.ScriptedProvider
	detector     *testutil.StaticDetector
	configureErr error
	prereqs      *prerequisites.CheckResults
	out          *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.json"), []byte(testTemplate), 0o600))

	for _, v := range []string{
		config.EnvGitHubToken, config.EnvGitHubUser, config.EnvHCloudToken, config.EnvSSHUser,
		config.EnvPollAttempts, config.EnvPollInterval, config.EnvGracePeriod, config.EnvWatchInterval,
	} {
		t.Setenv(v, "")
	}
	t.Setenv(config.EnvSurfAPIKey, "test-key")

	trace := &testutil.Trace{}
	h := &harness{
		dir:        dir,
		configPath: configPath,
		trace:      trace,
		provider:   testutil.NewScriptedProvider(trace),
		detector:   testutil.NewStaticDetector("def"),
		prereqs:    &prerequisites.CheckResults{},
		out:        &bytes.Buffer{},
	}

	origLogging := initLogging
	origProvider := newProvider
	origDetector := newDetector
	origConfigurator := newConfigurator
	origPrereqs := checkConfigurationPrereqs
	origStdout := stdout
	t.Cleanup(func() {
		initLogging = origLogging
		newProvider = origProvider
		newDetector = origDetector
		newConfigurator = origConfigurator
		checkConfigurationPrereqs = origPrereqs
		stdout = origStdout
	})

	initLogging = func(level, _, _ string) (io.Closer, error) {
		logging.SetOutput(io.Discard, level)
		return nopCloser{}, nil
	}
	newProvider = func(context.Context, *config.Config) (workspace.Provider, error) {
		return h.provider, nil
	}
	newDetector = func(*config.Config) (change.Detector, error) {
		return h.detector, nil
	}
	newConfigurator = func(*config.Config, *slog.Logger) configure.Configurator {
		return testutil.RecordingConfigurator(h.trace, h.configureErr)
	}
	checkConfigurationPrereqs = func(string) *prerequisites.CheckResults {
		return h.prereqs
	}
	stdout = h.out

	return h
}

func (h *harness) globals() Globals {
	return Globals{ConfigPath: h.configPath, LogLevel: "debug"}
}

// checkpoints opens the state directory the handlers write to.
func (h *harness) checkpoints(t *testing.T) *state.Checkpoints {
	t.Helper()
	store, err := state.NewFileStore(filepath.Join(h.dir, config.DefaultStateDir))
	require.NoError(t, err)
	return state.NewCheckpoints(store)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	h := newHarness(t)

	_, closer, err := loadConfig(Globals{ConfigPath: filepath.Join(h.dir, "missing.yaml")})
	require.NotNil(t, closer)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestLoadConfig_FindsDefaultFile(t *testing.T) {
	h := newHarness(t)

	origFind := findConfigFile
	defer func() { findConfigFile = origFind }()
	findConfigFile = func() (string, error) { return h.configPath, nil }

	cfg, _, err := loadConfig(Globals{})
	require.NoError(t, err)
	require.Equal(t, config.ProviderSurf, cfg.Provider)
	require.Equal(t, "example/service", cfg.Change.Repository)
}

func TestLoadConfig_NoDefaultFile(t *testing.T) {
	newHarness(t)

	origFind := findConfigFile
	defer func() { findConfigFile = origFind }()
	findConfigFile = func() (string, error) { return "", errors.New("config file surfspot.yaml not found") }

	_, _, err := loadConfig(Globals{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no config file found")
}

func TestBuildOrchestrator_PrerequisitesMissing(t *testing.T) {
	h := newHarness(t)
	h.prereqs = &prerequisites.CheckResults{
		Missing: []prerequisites.Tool{{Name: "ansible-playbook", Required: true}},
	}

	cfg, _, err := loadConfig(h.globals())
	require.NoError(t, err)

	_, err = buildOrchestrator(context.Background(), cfg, buildOptions{configure: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "prerequisites check failed")

	// Commands that never configure skip the check.
	_, err = buildOrchestrator(context.Background(), cfg, buildOptions{})
	require.NoError(t, err)
}

func TestBuildOrchestrator_ProviderError(t *testing.T) {
	h := newHarness(t)
	newProvider = func(context.Context, *config.Config) (workspace.Provider, error) {
		return nil, errors.New("surf: API key is required")
	}

	cfg, _, err := loadConfig(h.globals())
	require.NoError(t, err)

	_, err = buildOrchestrator(context.Background(), cfg, buildOptions{})
	require.EqualError(t, err, "surf: API key is required")
}

func TestDefaultConfigurator_Vars(t *testing.T) {
	cfg := &config.Config{
		Ansible: config.AnsibleConfig{
			Binary:   "ansible-playbook",
			Playbook: "/srv/site.yml",
			Vars:     map[string]string{"zone": "eu", "app": "api"},
		},
		SSH:     config.SSHConfig{User: "ubuntu", PrivateKey: "/keys/id"},
		Session: config.Session{GitHubUser: "octo", GitHubToken: "ghp", SurfAPIKey: "k"},
	}

	runner, ok := defaultConfigurator(cfg, slog.Default()).(*configure.AnsibleRunner)
	require.True(t, ok)
	require.Equal(t, "/srv/site.yml", runner.Playbook)
	require.Equal(t, "ubuntu", runner.User)
	require.Equal(t, "/keys/id", runner.PrivateKey)

	var names []string
	for _, v := range runner.Vars {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"github_user", "github_token", "surf_api_key", "app", "zone"}, names)
	require.True(t, runner.Vars[1].Secret)
	require.True(t, runner.Vars[2].Secret)
	require.False(t, runner.Vars[0].Secret)
}

func TestDefaultDetector(t *testing.T) {
	t.Run("github", func(t *testing.T) {
		cfg := &config.Config{Change: config.ChangeConfig{Source: config.SourceGitHub, Repository: "o/r", Branch: "dev"}}
		d, err := defaultDetector(cfg)
		require.NoError(t, err)
		require.IsType(t, &change.GitHubDetector{}, d)
	})

	t.Run("git", func(t *testing.T) {
		cfg := &config.Config{Change: config.ChangeConfig{Source: config.SourceGit, RemoteURL: "https://example.com/r.git", Branch: "main"}}
		d, err := defaultDetector(cfg)
		require.NoError(t, err)
		require.IsType(t, &change.RemoteDetector{}, d)
	})
}

func TestDefaultStore_File(t *testing.T) {
	cfg, err := config.Parse([]byte("state:\n  dir: " + t.TempDir() + "\n"))
	require.NoError(t, err)

	store, err := defaultStore(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &state.FileStore{}, store)
}

func TestDefaultProber_MissingKey(t *testing.T) {
	cfg := &config.Config{SSH: config.SSHConfig{PrivateKey: filepath.Join(t.TempDir(), "absent")}}

	_, err := defaultProber(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read SSH private key")
}

type fakeUploader struct {
	name, key string
	labels    map[string]string
	created   bool
	err       error
}

func (f *fakeUploader) EnsureSSHKey(_ context.Context, name, publicKey string, labels map[string]string) (string, bool, error) {
	f.name, f.key, f.labels = name, publicKey, labels
	return "42", f.created, f.err
}

func TestUploadSSHKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath+".pub", []byte("ssh-ed25519 AAAA surfspot\n"), 0o600))

	cfg := &config.Config{
		HCloud: config.HCloudConfig{SSHKeyName: "surfspot-ci"},
		SSH:    config.SSHConfig{PrivateKey: keyPath},
	}
	up := &fakeUploader{created: true}

	require.NoError(t, uploadSSHKey(context.Background(), up, cfg))
	require.Equal(t, "surfspot-ci", up.name)
	require.Equal(t, "ssh-ed25519 AAAA surfspot\n", up.key)
	require.Equal(t, "surfspot", up.labels["surfspot.io/managed-by"])
}

func TestUploadSSHKey_NoPublicKey(t *testing.T) {
	cfg := &config.Config{
		HCloud: config.HCloudConfig{SSHKeyName: "surfspot-ci"},
		SSH:    config.SSHConfig{PrivateKey: filepath.Join(t.TempDir(), "id_ed25519")},
	}

	err := uploadSSHKey(context.Background(), &fakeUploader{}, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "surfspot keygen")
}
