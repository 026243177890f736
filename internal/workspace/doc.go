// Package workspace defines the provider-neutral model of an ephemeral
// compute workspace: the creation request, the provider's record of the
// resource, the snapshot persisted after a successful address lookup, and
// the error taxonomy shared by every component of a provisioning cycle.
//
// Provider implementations live under internal/platform and satisfy the
// [Provider] interface defined here.
package workspace
