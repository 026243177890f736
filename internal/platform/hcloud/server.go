package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/surfspot/internal/util/labels"
	"github.com/imamik/surfspot/internal/workspace"
)

// Create creates a server from the request template. It does not wait
// for the create action to finish.
func (p *Provider) Create(ctx context.Context, req workspace.Request) (*workspace.Record, error) {
	opts, err := p.buildServerCreateOpts(ctx, req)
	if err != nil {
		return nil, &workspace.ProviderError{Op: "create", Err: err}
	}

	result, resp, err := p.client.Server.Create(ctx, opts)
	if err != nil {
		return nil, providerError("create", resp, err)
	}
	if result.Server == nil {
		return nil, &workspace.ProviderError{Op: "create", Err: fmt.Errorf("create response carried no server")}
	}

	return serverRecord(result.Server), nil
}

// Get returns the server with the numeric id.
func (p *Provider) Get(ctx context.Context, id string) (*workspace.Record, error) {
	serverID, err := parseID(id)
	if err != nil {
		return nil, &workspace.ProviderError{Op: "get", Err: err}
	}

	server, resp, err := p.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return nil, providerError("get", resp, err)
	}
	if server == nil {
		return nil, &workspace.ProviderError{Op: "get", StatusCode: 404, Err: fmt.Errorf("server %s: %w", id, workspace.ErrNotFound)}
	}

	return serverRecord(server), nil
}

// FindByName returns the server named name, or nil. Hetzner server
// names are unique per project.
func (p *Provider) FindByName(ctx context.Context, name string) (*workspace.Record, error) {
	server, resp, err := p.client.Server.GetByName(ctx, name)
	if err != nil {
		return nil, providerError("list", resp, err)
	}
	if server == nil {
		return nil, nil
	}
	return serverRecord(server), nil
}

// Delete deletes the server. The delete action is not awaited.
func (p *Provider) Delete(ctx context.Context, id string) error {
	serverID, err := parseID(id)
	if err != nil {
		return &workspace.ProviderError{Op: "delete", Err: err}
	}

	_, resp, err := p.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: serverID})
	if err != nil {
		return providerError("delete", resp, err)
	}
	return nil
}

// buildServerCreateOpts maps the request template onto create options.
func (p *Provider) buildServerCreateOpts(ctx context.Context, req workspace.Request) (hcloud.ServerCreateOpts, error) {
	serverType := req.StringField("server_type")
	if serverType == "" {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("template field server_type is required")
	}
	image := req.StringField("image")
	if image == "" {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("template field image is required")
	}

	sshKeys, err := p.resolveSSHKeys(ctx, stringList(req, "ssh_keys"))
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	opts := hcloud.ServerCreateOpts{
		Name:       req.Name,
		ServerType: &hcloud.ServerType{Name: serverType},
		Image:      &hcloud.Image{Name: image},
		SSHKeys:    sshKeys,
		Labels:     labels.NewLabelBuilder(req.Name).Merge(stringMap(req, "labels")).Build(),
		UserData:   req.StringField("user_data"),
	}
	if loc := req.StringField("location"); loc != "" {
		opts.Location = &hcloud.Location{Name: loc}
	}
	return opts, nil
}

// resolveSSHKeys resolves SSH key names or IDs to key objects.
func (p *Provider) resolveSSHKeys(ctx context.Context, sshKeys []string) ([]*hcloud.SSHKey, error) {
	var sshKeyObjs []*hcloud.SSHKey
	for _, key := range sshKeys {
		keyObj, _, err := p.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeyObjs = append(sshKeyObjs, keyObj)
	}
	return sshKeyObjs, nil
}

func serverRecord(server *hcloud.Server) *workspace.Record {
	addr := ServerIPv4(server)
	if addr == "" {
		addr = ServerIPv6(server)
	}
	return &workspace.Record{
		ID:      strconv.FormatInt(server.ID, 10),
		Name:    server.Name,
		Status:  string(server.Status),
		Created: server.Created,
		Address: addr,
	}
}

// ServerIPv4 returns the server's public IPv4, or "".
func ServerIPv4(server *hcloud.Server) string {
	if server == nil || server.PublicNet.IPv4.IP == nil || server.PublicNet.IPv4.IP.IsUnspecified() {
		return ""
	}
	return server.PublicNet.IPv4.IP.String()
}

// ServerIPv6 returns the server's public IPv6, or "".
func ServerIPv6(server *hcloud.Server) string {
	if server == nil || server.PublicNet.IPv6.IP == nil || server.PublicNet.IPv6.IP.IsUnspecified() {
		return ""
	}
	return server.PublicNet.IPv6.IP.String()
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid server id %q: %w", id, workspace.ErrNotFound)
	}
	return n, nil
}

func stringList(req workspace.Request, field string) []string {
	v, ok := req.Field(field)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		case float64:
			out = append(out, strconv.FormatInt(int64(s), 10))
		}
	}
	return out
}

func stringMap(req workspace.Request, field string) map[string]string {
	v, ok := req.Field(field)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}
