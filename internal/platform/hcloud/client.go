package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/surfspot/internal/workspace"
)

// Provider implements workspace.Provider using the Hetzner Cloud API.
type Provider struct {
	client *hcloud.Client
}

var _ workspace.Provider = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ProviderOption {
	return func(p *Provider) {
		p.client = hc
	}
}

// NewProvider creates a Provider authenticated with token.
func NewProvider(token, version string, opts ...ProviderOption) *Provider {
	p := &Provider{
		client: hcloud.NewClient(
			hcloud.WithToken(token),
			hcloud.WithApplication("surfspot", version),
		),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
