package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by the loader.
const (
	EnvSurfAPIKey    = "SURF_API_KEY"
	EnvHCloudToken   = "HCLOUD_TOKEN"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvGitHubUser    = "GITHUB_USER"
	EnvSSHUser       = "SSH_USER"
	EnvPollAttempts  = "SURFSPOT_POLL_ATTEMPTS"
	EnvPollInterval  = "SURFSPOT_POLL_INTERVAL"
	EnvGracePeriod   = "SURFSPOT_GRACE_PERIOD"
	EnvWatchInterval = "SURFSPOT_WATCH_INTERVAL"
)

// LoadSession collects credentials from the environment.
func LoadSession() Session {
	return Session{
		SurfAPIKey:  os.Getenv(EnvSurfAPIKey),
		HCloudToken: os.Getenv(EnvHCloudToken),
		GitHubToken: os.Getenv(EnvGitHubToken),
		GitHubUser:  os.Getenv(EnvGitHubUser),
		SSHUser:     os.Getenv(EnvSSHUser),
	}
}

// applyEnv overlays timing overrides and the session. If an override is
// not set or invalid, the current value is kept.
//
// Environment Variables:
//   - SURFSPOT_POLL_ATTEMPTS
//   - SURFSPOT_POLL_INTERVAL
//   - SURFSPOT_GRACE_PERIOD
//   - SURFSPOT_WATCH_INTERVAL
func (c *Config) applyEnv() {
	c.Lifecycle.PollAttempts = parseInt(EnvPollAttempts, c.Lifecycle.PollAttempts)
	c.Lifecycle.PollInterval = parseDuration(EnvPollInterval, c.Lifecycle.PollInterval)
	c.Lifecycle.GracePeriod = parseDuration(EnvGracePeriod, c.Lifecycle.GracePeriod)
	c.Lifecycle.WatchInterval = parseDuration(EnvWatchInterval, c.Lifecycle.WatchInterval)

	c.Session = LoadSession()
	if c.SSH.User == "" {
		c.SSH.User = c.Session.SSHUser
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
