package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultHostField is the dotted path of the nested host identifier that
// receives the generated workspace name.
const DefaultHostField = "meta.host_name"

// Provider is the narrow contract a compute provider must satisfy for the
// provisioning lifecycle.
type Provider interface {
	// Create submits a creation request. The returned record may not carry
	// an address yet because providers process creation asynchronously.
	Create(ctx context.Context, req Request) (*Record, error)

	// Get returns the current record for id, or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// FindByName returns the first workspace whose name equals name exactly,
	// or nil if there is none.
	FindByName(ctx context.Context, name string) (*Record, error)

	// Delete removes the workspace. It is never retried.
	Delete(ctx context.Context, id string) error
}

// Request is a creation payload: a template document with the generated
// name injected.
type Request struct {
	Name string
	Body map[string]any
}

// NewRequest deep-copies template and injects name into the top-level
// "name" field and into the nested field addressed by hostField
// (a dotted path such as "meta.host_name"). Missing intermediate objects
// are created. An empty hostField skips the nested injection.
func NewRequest(template map[string]any, name, hostField string) (Request, error) {
	if name == "" {
		return Request{}, fmt.Errorf("workspace name cannot be empty")
	}

	body, err := cloneDocument(template)
	if err != nil {
		return Request{}, err
	}
	body["name"] = name

	if hostField != "" {
		if err := setPath(body, strings.Split(hostField, "."), name); err != nil {
			return Request{}, fmt.Errorf("failed to inject host field %q: %w", hostField, err)
		}
	}

	return Request{Name: name, Body: body}, nil
}

// Field returns the value at a dotted path in the request body.
func (r Request) Field(path string) (any, bool) {
	var cur any = r.Body
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// StringField returns the string value at a dotted path, or "".
func (r Request) StringField(path string) string {
	v, ok := r.Field(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func setPath(doc map[string]any, parts []string, value any) error {
	cur := doc
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("empty path segment")
		}
		if i == len(parts)-1 {
			cur[part] = value
			return nil
		}
		next, exists := cur[part]
		if !exists || next == nil {
			child := make(map[string]any)
			cur[part] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("segment %q is %T, not an object", part, next)
		}
		cur = child
	}
	return nil
}

// cloneDocument round-trips through JSON so nested maps are never shared
// with the caller's template.
func cloneDocument(src map[string]any) (map[string]any, error) {
	if src == nil {
		return make(map[string]any), nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to copy workspace template: %w", err)
	}
	var dst map[string]any
	if err := json.Unmarshal(data, &dst); err != nil {
		return nil, fmt.Errorf("failed to copy workspace template: %w", err)
	}
	return dst, nil
}

// Record is the provider's view of a workspace.
type Record struct {
	ID      string
	Name    string
	Status  string
	Created time.Time
	// Address is empty until the provider has finished provisioning.
	Address string
	FQDN    string
}

// HasAddress reports whether the workspace is network-reachable.
func (r *Record) HasAddress() bool {
	return r != nil && r.Address != ""
}

// LookupResult is the durable snapshot of one provisioning cycle, written
// once the address has been resolved.
type LookupResult struct {
	Timestamp   time.Time `json:"timestamp"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspace_id"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
	FQDN        string    `json:"fqdn"`
	IP          string    `json:"ip"`
}

// NewLookupResult builds a snapshot from a resolved record.
func NewLookupResult(rec *Record, now time.Time) LookupResult {
	return LookupResult{
		Timestamp:   now.UTC(),
		Name:        rec.Name,
		WorkspaceID: rec.ID,
		Status:      rec.Status,
		Created:     rec.Created,
		FQDN:        rec.FQDN,
		IP:          rec.Address,
	}
}

// Validate checks the fields required to act on a snapshot.
func (l LookupResult) Validate() error {
	if l.WorkspaceID == "" {
		return fmt.Errorf("lookup result has no workspace_id")
	}
	if l.IP == "" {
		return fmt.Errorf("lookup result has no ip")
	}
	return nil
}
