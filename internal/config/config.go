package config

import (
	"time"
)

// Provider names.
const (
	ProviderSurf   = "surf"
	ProviderHCloud = "hcloud"
)

// Change source names.
const (
	SourceGitHub = "github"
	SourceGit    = "git"
)

// State backends.
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// Config is the complete surfspot configuration.
type Config struct {
	// Provider selects the workspace backend: "surf" or "hcloud".
	Provider string `yaml:"provider"`

	Surf      SurfConfig      `yaml:"surf"`
	HCloud    HCloudConfig    `yaml:"hcloud"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Change    ChangeConfig    `yaml:"change"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	State     StateConfig     `yaml:"state"`
	Inventory InventoryConfig `yaml:"inventory"`
	Ansible   AnsibleConfig   `yaml:"ansible"`
	SSH       SSHConfig       `yaml:"ssh"`

	// Session holds credentials from the environment. Never read from YAML.
	Session Session `yaml:"-"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// SurfConfig configures the SURF Research Cloud workspace API.
type SurfConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HCloudConfig configures the Hetzner Cloud provider.
type HCloudConfig struct {
	// SSHKeyName uploads the configured public key under this name before
	// creating servers. Empty skips the upload.
	SSHKeyName string `yaml:"ssh_key_name"`
}

// WorkspaceConfig describes the workspace creation request.
type WorkspaceConfig struct {
	// Template is a JSON or YAML request document.
	Template   string `yaml:"template"`
	HostField  string `yaml:"host_field"`
	NamePrefix string `yaml:"name_prefix"`
	NameLength int    `yaml:"name_length"`
}

// ChangeConfig describes the monitored change source.
type ChangeConfig struct {
	// Source is "github" (commit API) or "git" (ls-remote).
	Source            string `yaml:"source"`
	Repository        string `yaml:"repository"`
	Branch            string `yaml:"branch"`
	APIURL            string `yaml:"api_url"`
	RemoteURL         string `yaml:"remote_url"`
	TriggerOnFirstRun bool   `yaml:"trigger_on_first_run"`
}

// LifecycleConfig holds timing and checkpoint settings.
type LifecycleConfig struct {
	Checkpoint    string        `yaml:"checkpoint"`
	PollAttempts  int           `yaml:"poll_attempts"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	GracePeriod   time.Duration `yaml:"grace_period"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

// StateConfig selects where checkpoints are persisted.
type StateConfig struct {
	Backend string   `yaml:"backend"`
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// S3Config locates the remote state bucket. Keys come from the standard
// AWS environment variables.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// InventoryConfig locates the Ansible inventory.
type InventoryConfig struct {
	Path  string `yaml:"path"`
	Group string `yaml:"group"`
	// Prune drops entries for addresses other than the current workspace.
	Prune *bool `yaml:"prune"`
}

// AnsibleConfig configures the playbook run.
type AnsibleConfig struct {
	Binary   string            `yaml:"binary"`
	Playbook string            `yaml:"playbook"`
	Vars     map[string]string `yaml:"vars"`
}

// SSHConfig configures workspace access.
type SSHConfig struct {
	User       string `yaml:"user"`
	PrivateKey string `yaml:"private_key"`
	Port       int    `yaml:"port"`
	// Probe dials the workspace before running the playbook.
	Probe bool `yaml:"probe"`
}

// Session is the set of credentials for one process. It is built once at
// load time and passed by value.
type Session struct {
	SurfAPIKey  string
	HCloudToken string
	GitHubToken string
	GitHubUser  string
	SSHUser     string
}

// PruneInventory reports whether stale inventory entries are removed.
func (c *Config) PruneInventory() bool {
	return c.Inventory.Prune == nil || *c.Inventory.Prune
}

// Dir returns the directory relative paths resolve against.
func (c *Config) Dir() string { return c.dir }
