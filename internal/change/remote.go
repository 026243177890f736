package change

import (
	"context"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const remoteSource = "git-remote"

// RemoteDetector reads a branch head with a lightweight ls-remote, so any
// git host works without a REST API.
type RemoteDetector struct {
	url    string
	branch string
	auth   transport.AuthMethod
}

// NewRemoteDetector creates a detector for the branch of the repository at
// url. An empty branch follows the remote HEAD. username/token enable HTTP
// basic auth when token is set.
func NewRemoteDetector(url, branch, username, token string) *RemoteDetector {
	d := &RemoteDetector{url: url, branch: branch}
	if token != "" {
		if username == "" {
			username = "git"
		}
		d.auth = &githttp.BasicAuth{Username: username, Password: token}
	}
	return d
}

// Detect lists the remote references and returns the hash of the branch.
func (d *RemoteDetector) Detect(ctx context.Context) (Token, error) {
	rem := git.NewRemote(nil, &ggitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{d.url},
	})

	listOpts := &git.ListOptions{}
	if d.auth != nil {
		listOpts.Auth = d.auth
	}

	refs, err := rem.ListContext(ctx, listOpts)
	if err != nil {
		return "", transient(remoteSource, "ls-remote %s: %w", d.url, err)
	}

	want := plumbing.HEAD
	if d.branch != "" {
		want = plumbing.NewBranchReferenceName(d.branch)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	ref, ok := byName[want]
	// HEAD is usually advertised as a symbolic reference.
	for i := 0; ok && ref.Type() == plumbing.SymbolicReference && i < 5; i++ {
		ref, ok = byName[ref.Target()]
	}
	if !ok || ref.Hash().IsZero() {
		return "", transient(remoteSource, "reference %s not found on %s", want, d.url)
	}

	return Token(ref.Hash().String()), nil
}
