// Package naming generates names for provisioned workspaces.
//
// Workspace names follow the pattern {prefix}-{suffix}, where the suffix is
// drawn from lowercase letters and digits. Workspaces are short-lived and
// single-tenant, so a five character suffix keeps collisions negligible
// while staying readable in the provider portal.
package naming
