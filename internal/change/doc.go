// Package change detects new commits in a monitored repository.
//
// A Detector reads an opaque Token from a change source. Tokens are only
// compared for equality: HasChanged reports whether the current token
// differs from the last one the caller persisted. Failures to read the
// source are always returned as *workspace.TransientFetchError so the
// caller can skip the cycle and try again later.
package change
