// Package state persists the small amount of data a provisioning cycle
// needs to survive restarts: the last observed change token, the name and
// id of the most recently created workspace, and the last address lookup.
//
// Every key is stored independently with overwrite semantics. A key that
// was never written reads as absent; a key that exists but cannot be
// decoded is reported as *workspace.StateCorruptionError and never
// silently treated as absent.
package state
