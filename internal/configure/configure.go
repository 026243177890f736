package configure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/imamik/surfspot/internal/workspace"
)

// DefaultBinary is the playbook runner looked up in PATH.
const DefaultBinary = "ansible-playbook"

// DefaultSSHCommonArgs disables host key checking: every workspace is a
// fresh host with an unknown key.
const DefaultSSHCommonArgs = "-o StrictHostKeyChecking=no"

// Target identifies the workspace to configure.
type Target struct {
	Name          string
	Address       string
	InventoryPath string
}

// Configurator configures a reachable workspace.
type Configurator interface {
	Configure(ctx context.Context, target Target) error
}

// Func adapts a function to Configurator.
type Func func(ctx context.Context, target Target) error

// Configure calls f.
func (f Func) Configure(ctx context.Context, target Target) error { return f(ctx, target) }

// Var is a named playbook variable passed with -e. Secret values are
// redacted from logs.
type Var struct {
	Name   string
	Value  string
	Secret bool
}

// AnsibleRunner runs ansible-playbook against the inventory.
type AnsibleRunner struct {
	Binary        string
	Playbook      string
	User          string
	PrivateKey    string
	Vars          []Var
	SSHCommonArgs string
	Dir           string
	Stdout        io.Writer
	Stderr        io.Writer
	Logger        *slog.Logger
}

var _ Configurator = (*AnsibleRunner)(nil)

// Args returns the command line arguments for target, without the binary.
func (r *AnsibleRunner) Args(target Target) []string {
	args := []string{"-i", target.InventoryPath, r.Playbook}
	if r.User != "" {
		args = append(args, "-u", r.User)
	}
	if r.PrivateKey != "" {
		args = append(args, "--private-key", r.PrivateKey)
	}
	for _, v := range r.Vars {
		args = append(args, "-e", v.Name+"="+v.Value)
	}
	sshArgs := r.SSHCommonArgs
	if sshArgs == "" {
		sshArgs = DefaultSSHCommonArgs
	}
	args = append(args, "-e", fmt.Sprintf("ansible_ssh_common_args='%s'", sshArgs))
	return args
}

// redactedArgs is Args with secret values masked, for logging.
func (r *AnsibleRunner) redactedArgs(target Target) []string {
	args := r.Args(target)
	secrets := make(map[string]bool)
	for _, v := range r.Vars {
		if v.Secret && v.Value != "" {
			secrets[v.Name+"="+v.Value] = true
		}
	}
	out := make([]string, len(args))
	for i, a := range args {
		if secrets[a] {
			name, _, _ := strings.Cut(a, "=")
			a = name + "=***"
		}
		out[i] = a
	}
	return out
}

// Configure runs the playbook and blocks until it exits. A non-zero exit
// or a failure to start the process is a *workspace.ConfigurationError.
func (r *AnsibleRunner) Configure(ctx context.Context, target Target) error {
	if r.Playbook == "" {
		return &workspace.ConfigurationError{Address: target.Address, Err: fmt.Errorf("no playbook configured")}
	}
	if target.InventoryPath == "" {
		return &workspace.ConfigurationError{Address: target.Address, Err: fmt.Errorf("no inventory path")}
	}

	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("running configuration playbook",
		"workspace", target.Name,
		"address", target.Address,
		"command", binary+" "+strings.Join(r.redactedArgs(target), " "))

	// #nosec G204 - binary and arguments come from operator configuration
	cmd := exec.CommandContext(ctx, binary, r.Args(target)...)
	cmd.Dir = r.Dir
	cmd.Stdout = writerOr(r.Stdout, os.Stdout)
	cmd.Stderr = writerOr(r.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return &workspace.ConfigurationError{Address: target.Address, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return &workspace.ConfigurationError{Address: target.Address, Err: err}
	}

	logger.Info("configuration playbook finished", "workspace", target.Name, "address", target.Address)
	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
