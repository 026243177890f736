package hcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureSSHKey registers publicKey under name unless a key with that name
// already exists. It returns the key ID and whether it was created.
func (p *Provider) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, bool, error) {
	existing, _, err := p.client.SSHKey.GetByName(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	if existing != nil {
		if strings.TrimSpace(existing.PublicKey) != "" && !sameKey(existing.PublicKey, publicKey) {
			return "", false, fmt.Errorf("ssh key %s already exists with a different public key", name)
		}
		return fmt.Sprintf("%d", existing.ID), false, nil
	}

	key, _, err := p.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to create ssh key: %w", err)
	}
	return fmt.Sprintf("%d", key.ID), true, nil
}

// sameKey compares the type and base64 fields, ignoring comments.
func sameKey(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return fa[0] == fb[0] && fa[1] == fb[1]
}
