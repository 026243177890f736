package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/surfspot/internal/provisioning"
)

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderSurf:
		if c.Session.SurfAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required for provider %q", EnvSurfAPIKey, c.Provider))
		}
	case ProviderHCloud:
		if c.Session.HCloudToken == "" {
			errs = append(errs, fmt.Errorf("%s is required for provider %q", EnvHCloudToken, c.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid provider %q: must be %q or %q", c.Provider, ProviderSurf, ProviderHCloud))
	}

	if c.Workspace.Template == "" {
		errs = append(errs, errors.New("workspace.template is required"))
	}
	if c.Workspace.NameLength < 1 {
		errs = append(errs, fmt.Errorf("workspace.name_length must be positive, got %d", c.Workspace.NameLength))
	}

	errs = append(errs, c.validateChange()...)
	errs = append(errs, c.validateLifecycle()...)

	switch c.State.Backend {
	case BackendFile:
	case BackendS3:
		if c.State.S3.Bucket == "" {
			errs = append(errs, errors.New("state.s3.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid state.backend %q: must be %q or %q", c.State.Backend, BackendFile, BackendS3))
	}

	if c.SSH.User == "" {
		errs = append(errs, fmt.Errorf("ssh.user or %s is required", EnvSSHUser))
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		errs = append(errs, fmt.Errorf("ssh.port %d is out of range", c.SSH.Port))
	}

	return errors.Join(errs...)
}

func (c *Config) validateChange() []error {
	var errs []error
	switch c.Change.Source {
	case SourceGitHub:
		if !strings.Contains(c.Change.Repository, "/") {
			errs = append(errs, fmt.Errorf("change.repository must be owner/name, got %q", c.Change.Repository))
		}
	case SourceGit:
		if c.Change.RemoteURL == "" {
			errs = append(errs, errors.New("change.remote_url is required for the git source"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid change.source %q: must be %q or %q", c.Change.Source, SourceGitHub, SourceGit))
	}
	return errs
}

func (c *Config) validateLifecycle() []error {
	var errs []error
	switch provisioning.CheckpointMode(c.Lifecycle.Checkpoint) {
	case provisioning.CheckpointBeforeCreate, provisioning.CheckpointAfterConfigure:
	default:
		errs = append(errs, fmt.Errorf("invalid lifecycle.checkpoint %q: must be %q or %q",
			c.Lifecycle.Checkpoint, provisioning.CheckpointBeforeCreate, provisioning.CheckpointAfterConfigure))
	}
	if c.Lifecycle.PollAttempts < 1 {
		errs = append(errs, fmt.Errorf("lifecycle.poll_attempts must be positive, got %d", c.Lifecycle.PollAttempts))
	}
	if c.Lifecycle.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("lifecycle.poll_interval cannot be negative"))
	}
	if c.Lifecycle.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("lifecycle.grace_period cannot be negative"))
	}
	if c.Lifecycle.WatchInterval <= 0 {
		errs = append(errs, fmt.Errorf("lifecycle.watch_interval must be positive"))
	}
	return errs
}
