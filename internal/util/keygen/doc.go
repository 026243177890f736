// Package keygen generates and persists ed25519 key pairs for SSH access to
// provisioned workspaces.
//
// Keys are produced in OpenSSH PEM format (private) and authorized_keys
// format (public). The public key is what the operator uploads to the
// provider portal once, before the first cycle.
package keygen
