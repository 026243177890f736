// Package handlers implements the business logic behind each CLI command.
//
// Collaborators are created through package-level factory variables so
// tests can replace the provider, detector, state store and configurator
// with in-memory fakes.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/config"
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/inventory"
	"github.com/imamik/surfspot/internal/logging"
	"github.com/imamik/surfspot/internal/platform/hcloud"
	"github.com/imamik/surfspot/internal/platform/s3"
	"github.com/imamik/surfspot/internal/platform/ssh"
	"github.com/imamik/surfspot/internal/platform/surf"
	"github.com/imamik/surfspot/internal/provisioning"
	"github.com/imamik/surfspot/internal/state"
	"github.com/imamik/surfspot/internal/util/keygen"
	"github.com/imamik/surfspot/internal/util/labels"
	"github.com/imamik/surfspot/internal/util/netutil"
	"github.com/imamik/surfspot/internal/util/prerequisites"
	"github.com/imamik/surfspot/internal/workspace"
)

// Globals are the persistent flags shared by every command.
type Globals struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	LogFile    string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads and validates the configuration file.
	loadConfigFile = config.Load

	// findConfigFile locates surfspot.yaml when --config is not given.
	findConfigFile = config.FindConfigFile

	// initLogging installs the global logger.
	initLogging = logging.Init

	// newProvider creates the workspace provider selected in the config.
	newProvider = defaultProvider

	// newDetector creates the change detector selected in the config.
	newDetector = defaultDetector

	// newStore creates the checkpoint store selected in the config.
	newStore = defaultStore

	// newConfigurator creates the playbook runner.
	newConfigurator = defaultConfigurator

	// newProber creates the optional SSH reachability probe.
	newProber = defaultProber

	// checkConfigurationPrereqs verifies the playbook runner is installed.
	checkConfigurationPrereqs = prerequisites.CheckConfiguration

	// stdout receives user-facing command output.
	stdout io.Writer = os.Stdout
)

// version is reported to provider APIs that accept an application name.
var version = "dev"

// SetVersion records the build version used in provider user agents.
func SetVersion(v string) {
	version = v
}

// loadConfig initializes logging and loads the configuration. If
// configPath is empty, surfspot.yaml is searched for from the working
// directory upwards. The returned closer releases the log file.
func loadConfig(g Globals) (*config.Config, io.Closer, error) {
	closer, err := initLogging(g.LogLevel, g.LogFormat, g.LogFile)
	if err != nil {
		return nil, closer, err
	}

	configPath := g.ConfigPath
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, closer, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, closer, fmt.Errorf("failed to load config: %w", err)
	}

	logging.Logger().Debug("loaded configuration", "path", configPath, "provider", cfg.Provider)
	return cfg, closer, nil
}

// buildOptions controls which collaborators buildOrchestrator wires.
type buildOptions struct {
	// configure wires the playbook runner and checks it is installed.
	configure bool
	metrics   bool
}

// buildOrchestrator wires every collaborator from cfg.
func buildOrchestrator(ctx context.Context, cfg *config.Config, opts buildOptions) (*provisioning.Orchestrator, error) {
	logger := logging.Logger()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if opts.metrics {
		provider = provisioning.Instrument(provider)
	}

	detector, err := newDetector(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	template, err := cfg.LoadTemplate()
	if err != nil {
		return nil, err
	}

	deps := provisioning.Dependencies{
		Detector:    detector,
		Provider:    provider,
		Checkpoints: state.NewCheckpoints(store),
		Inventory:   inventory.New(cfg.Resolve(cfg.Inventory.Path), cfg.Inventory.Group),
		// Commands that never configure still need a non-nil runner.
		Configurator: configure.Func(func(context.Context, configure.Target) error {
			return fmt.Errorf("configuration is not available for this command")
		}),
	}

	if opts.configure {
		if err := checkPrerequisites(cfg); err != nil {
			return nil, err
		}
		deps.Configurator = newConfigurator(cfg, logger)
		if cfg.SSH.Probe {
			prober, err := newProber(cfg)
			if err != nil {
				return nil, err
			}
			deps.Prober = prober
		}
	}

	return provisioning.New(deps, provisioning.Options{
		Template:          template,
		HostField:         cfg.Workspace.HostField,
		NamePrefix:        cfg.Workspace.NamePrefix,
		NameLength:        cfg.Workspace.NameLength,
		Checkpoint:        provisioning.CheckpointMode(cfg.Lifecycle.Checkpoint),
		TriggerOnFirstRun: cfg.Change.TriggerOnFirstRun,
		PollAttempts:      cfg.Lifecycle.PollAttempts,
		PollInterval:      cfg.Lifecycle.PollInterval,
		GracePeriod:       cfg.Lifecycle.GracePeriod,
		SSHUser:           cfg.SSH.User,
		SSHKeyPath:        cfg.Resolve(cfg.SSH.PrivateKey),
		PruneInventory:    cfg.PruneInventory(),
	},
		provisioning.WithObserver(provisioning.NewSlogObserver(logger)),
		provisioning.WithMetrics(opts.metrics),
	)
}

// checkPrerequisites verifies the configured playbook runner is on PATH.
func checkPrerequisites(cfg *config.Config) error {
	logger := logging.Logger()
	results := checkConfigurationPrereqs(cfg.Ansible.Binary)

	for _, r := range results.Results {
		if r.Found {
			v := r.Version
			if v == "" {
				v = "unknown version"
			}
			logger.Debug("found tool", "name", r.Tool.Name, "version", v)
		}
	}

	if err := results.Error(); err != nil {
		return fmt.Errorf("prerequisites check failed: %w", err)
	}
	return nil
}

func defaultProvider(ctx context.Context, cfg *config.Config) (workspace.Provider, error) {
	switch cfg.Provider {
	case config.ProviderHCloud:
		p := hcloud.NewProvider(cfg.Session.HCloudToken, version)
		if cfg.HCloud.SSHKeyName != "" {
			if err := uploadSSHKey(ctx, p, cfg); err != nil {
				return nil, err
			}
		}
		return p, nil
	default:
		return surf.NewClient(surf.Config{
			BaseURL: cfg.Surf.BaseURL,
			APIKey:  cfg.Session.SurfAPIKey,
			Logger:  logging.Logger(),
		})
	}
}

// sshKeyUploader is the subset of the hcloud provider used to register
// the workspace access key.
type sshKeyUploader interface {
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, bool, error)
}

func uploadSSHKey(ctx context.Context, p sshKeyUploader, cfg *config.Config) error {
	pubPath := keygen.PublicKeyPath(cfg.Resolve(cfg.SSH.PrivateKey))
	pub, err := os.ReadFile(pubPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read public key (run 'surfspot keygen' first): %w", err)
	}

	keyLabels := labels.NewLabelBuilder(cfg.HCloud.SSHKeyName).WithManagedBy(labels.ManagedBySurfspot).Build()
	id, created, err := p.EnsureSSHKey(ctx, cfg.HCloud.SSHKeyName, string(pub), keyLabels)
	if err != nil {
		return err
	}
	if created {
		logging.Logger().Info("uploaded SSH key", "name", cfg.HCloud.SSHKeyName, "id", id)
	}
	return nil
}

func defaultDetector(cfg *config.Config) (change.Detector, error) {
	c := cfg.Change
	switch c.Source {
	case config.SourceGit:
		return change.NewRemoteDetector(c.RemoteURL, c.Branch, cfg.Session.GitHubUser, cfg.Session.GitHubToken), nil
	default:
		var opts []change.GitHubOption
		if c.APIURL != "" {
			opts = append(opts, change.WithGitHubBaseURL(c.APIURL))
		}
		if c.Branch != "" {
			opts = append(opts, change.WithGitHubBranch(c.Branch))
		}
		return change.NewGitHubDetector(c.Repository, cfg.Session.GitHubToken, opts...)
	}
}

func defaultStore(ctx context.Context, cfg *config.Config) (state.Store, error) {
	if cfg.State.Backend != config.BackendS3 {
		return state.NewFileStore(cfg.Resolve(cfg.State.Dir))
	}

	s3cfg := cfg.State.S3
	client, err := s3.NewClient(ctx, s3.Options{
		Endpoint:  s3cfg.Endpoint,
		Region:    s3cfg.Region,
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		PathStyle: s3cfg.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx, s3cfg.Bucket); err != nil {
		return nil, fmt.Errorf("failed to prepare state bucket: %w", err)
	}
	return state.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix)
}

func defaultConfigurator(cfg *config.Config, logger *slog.Logger) configure.Configurator {
	vars := []configure.Var{
		{Name: "github_user", Value: cfg.Session.GitHubUser},
		{Name: "github_token", Value: cfg.Session.GitHubToken, Secret: true},
		{Name: "surf_api_key", Value: cfg.Session.SurfAPIKey, Secret: true},
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Ansible.Vars)) {
		vars = append(vars, configure.Var{Name: name, Value: cfg.Ansible.Vars[name]})
	}

	return &configure.AnsibleRunner{
		Binary:     cfg.Ansible.Binary,
		Playbook:   cfg.Resolve(cfg.Ansible.Playbook),
		User:       cfg.SSH.User,
		PrivateKey: cfg.Resolve(cfg.SSH.PrivateKey),
		Vars:       vars,
		Dir:        cfg.Dir(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
	}
}

func defaultProber(cfg *config.Config) (provisioning.Prober, error) {
	key, err := os.ReadFile(cfg.Resolve(cfg.SSH.PrivateKey)) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key: %w", err)
	}

	return provisioning.ProbeFunc(func(ctx context.Context, address string) error {
		if err := netutil.WaitForPort(ctx, address, cfg.SSH.Port, netutil.DefaultPortWaitTimeout); err != nil {
			return err
		}
		client, err := ssh.NewClient(&ssh.Config{
			Host:       address,
			Port:       cfg.SSH.Port,
			User:       cfg.SSH.User,
			PrivateKey: key,
		})
		if err != nil {
			return err
		}
		return client.Probe(ctx)
	}), nil
}
