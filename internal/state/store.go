package state

import "context"

// Keys used by the provisioning lifecycle. The names double as file names
// for FileStore and object names for S3Store.
const (
	KeyLastCommit     = "last_commit.txt"
	KeyPendingCommit  = "last_pending_commit.txt"
	KeyWorkspaceName  = "last_workspace_names.txt"
	KeyWorkspaceID    = "last_workspace_id.txt"
	KeyWorkspaceQuery = "workspace_ip_lookup.json"
)

// Store is a durable key/value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set durably replaces the value for key.
	Set(ctx context.Context, key, value string) error
}
