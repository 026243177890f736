package surf

import (
	"time"

	"github.com/imamik/surfspot/internal/workspace"
)

// workspaceSchema holds the subset of the workspace document the
// lifecycle consumes.
type workspaceSchema struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Status       string             `json:"status"`
	TimeCreated  string             `json:"time_created"`
	Meta         metaSchema         `json:"meta"`
	ResourceMeta resourceMetaSchema `json:"resource_meta"`
}

type metaSchema struct {
	HostName      string `json:"host_name"`
	WorkspaceFQDN string `json:"workspace_fqdn"`
}

type resourceMetaSchema struct {
	IP string `json:"ip"`
}

type listSchema struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []workspaceSchema `json:"results"`
}

func (s workspaceSchema) record() *workspace.Record {
	return &workspace.Record{
		ID:      s.ID,
		Name:    s.Name,
		Status:  s.Status,
		Created: parseTime(s.TimeCreated),
		Address: s.ResourceMeta.IP,
		FQDN:    s.Meta.WorkspaceFQDN,
	}
}

// parseTime returns the zero time for values the API leaves empty or
// formats unexpectedly; the timestamp is informational only.
func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
