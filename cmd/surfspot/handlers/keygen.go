package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/imamik/surfspot/internal/config"
	"github.com/imamik/surfspot/internal/platform/hcloud"
	"github.com/imamik/surfspot/internal/util/keygen"
)

// KeygenOptions are the flags of the keygen command.
type KeygenOptions struct {
	// KeyPath overrides the private key path from the config.
	KeyPath string
	Comment string
	// Upload registers the public key with Hetzner Cloud under
	// hcloud.ssh_key_name.
	Upload bool
}

// Factory function variables for keygen - can be replaced in tests.
var (
	// ensureKeyPair loads or generates the key pair.
	ensureKeyPair = keygen.EnsureKeyPair

	// newKeyUploader creates the client the public key is uploaded with.
	newKeyUploader = func(cfg *config.Config) sshKeyUploader {
		return hcloud.NewProvider(cfg.Session.HCloudToken, version)
	}
)

// Keygen handles the keygen command.
//
// It creates an ed25519 key pair for workspace access unless one already
// exists, and prints the public key so it can be registered with the
// provider. The config file is only required when no key path is given or
// the key is uploaded.
func Keygen(ctx context.Context, g Globals, opts KeygenOptions) error {
	cfg := &config.Config{}
	if opts.KeyPath == "" || opts.Upload {
		loaded, closer, err := loadConfig(g)
		defer func() { _ = closer.Close() }()
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		closer, err := initLogging(g.LogLevel, g.LogFormat, g.LogFile)
		defer func() { _ = closer.Close() }()
		if err != nil {
			return err
		}
	}

	keyPath := opts.KeyPath
	if keyPath == "" {
		keyPath = cfg.SSH.PrivateKey
	}
	keyPath = cfg.Resolve(keyPath)

	comment := opts.Comment
	if comment == "" {
		comment = "surfspot"
	}

	pair, created, err := ensureKeyPair(keyPath, comment)
	if err != nil {
		return fmt.Errorf("failed to prepare key pair: %w", err)
	}

	if created {
		_, _ = fmt.Fprintf(stdout, "Generated key pair at %s\n", keyPath)
	} else {
		_, _ = fmt.Fprintf(stdout, "Using existing key pair at %s\n", keyPath)
	}
	_, _ = fmt.Fprintf(stdout, "Public key (%s):\n", keygen.PublicKeyPath(keyPath))
	_, _ = stdout.Write(pair.PublicKey)

	if !opts.Upload {
		printUploadHint(stdout, cfg)
		return nil
	}

	if cfg.Provider != config.ProviderHCloud || cfg.HCloud.SSHKeyName == "" {
		return fmt.Errorf("--upload requires provider %q and hcloud.ssh_key_name", config.ProviderHCloud)
	}
	uploadCfg := *cfg
	uploadCfg.SSH.PrivateKey = keyPath
	if err := uploadSSHKey(ctx, newKeyUploader(cfg), &uploadCfg); err != nil {
		return fmt.Errorf("failed to upload public key: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Public key registered as %q\n", cfg.HCloud.SSHKeyName)
	return nil
}

func printUploadHint(w io.Writer, cfg *config.Config) {
	if cfg.Provider == config.ProviderHCloud {
		_, _ = fmt.Fprintln(w, "\nRun 'surfspot keygen --upload' to register it with Hetzner Cloud.")
		return
	}
	_, _ = fmt.Fprintln(w, "\nAdd this key to your profile in the provider portal before the next cycle.")
}
