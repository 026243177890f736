package config

import (
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/inventory"
	"github.com/imamik/surfspot/internal/platform/surf"
	"github.com/imamik/surfspot/internal/provisioning"
	"github.com/imamik/surfspot/internal/util/naming"
	"github.com/imamik/surfspot/internal/workspace"
)

// Defaults for settings left empty in the file.
const (
	DefaultStateDir      = ".surfspot"
	DefaultInventoryPath = "inventory.ini"
	DefaultPlaybook      = "playbook.yml"
	DefaultBranch        = "main"
	DefaultSSHPort       = 22
	DefaultPrivateKey    = "~/.ssh/surfspot_ed25519"
	DefaultS3Prefix      = "surfspot/"
)

// applyDefaults fills every zero value with its default.
func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderSurf
	}
	if c.Surf.BaseURL == "" {
		c.Surf.BaseURL = surf.DefaultBaseURL
	}

	if c.Workspace.HostField == "" {
		c.Workspace.HostField = workspace.DefaultHostField
	}
	if c.Workspace.NamePrefix == "" {
		c.Workspace.NamePrefix = naming.DefaultPrefix
	}
	if c.Workspace.NameLength == 0 {
		c.Workspace.NameLength = naming.DefaultSuffixLength
	}

	if c.Change.Source == "" {
		c.Change.Source = SourceGitHub
	}
	if c.Change.Branch == "" && c.Change.Source == SourceGit {
		c.Change.Branch = DefaultBranch
	}

	if c.Lifecycle.Checkpoint == "" {
		c.Lifecycle.Checkpoint = string(provisioning.CheckpointBeforeCreate)
	}
	if c.Lifecycle.PollAttempts == 0 {
		c.Lifecycle.PollAttempts = provisioning.DefaultPollAttempts
	}
	if c.Lifecycle.PollInterval == 0 {
		c.Lifecycle.PollInterval = provisioning.DefaultPollInterval
	}
	if c.Lifecycle.GracePeriod == 0 {
		c.Lifecycle.GracePeriod = provisioning.DefaultGracePeriod
	}
	if c.Lifecycle.WatchInterval == 0 {
		c.Lifecycle.WatchInterval = provisioning.DefaultWatchInterval
	}

	if c.State.Backend == "" {
		c.State.Backend = BackendFile
	}
	if c.State.Dir == "" {
		c.State.Dir = DefaultStateDir
	}
	if c.State.S3.Prefix == "" {
		c.State.S3.Prefix = DefaultS3Prefix
	}

	if c.Inventory.Path == "" {
		c.Inventory.Path = DefaultInventoryPath
	}
	if c.Inventory.Group == "" {
		c.Inventory.Group = inventory.DefaultGroup
	}

	if c.Ansible.Binary == "" {
		c.Ansible.Binary = configure.DefaultBinary
	}
	if c.Ansible.Playbook == "" {
		c.Ansible.Playbook = DefaultPlaybook
	}

	if c.SSH.PrivateKey == "" {
		c.SSH.PrivateKey = DefaultPrivateKey
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
}

