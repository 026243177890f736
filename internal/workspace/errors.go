package workspace

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a workspace lookup matched nothing.
var ErrNotFound = errors.New("workspace not found")

// TransientFetchError means no decision was possible this cycle, typically
// a network or API hiccup while reading the change source. Callers retry on
// the next cycle.
type TransientFetchError struct {
	Source string
	Err    error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error from %s: %v", e.Source, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// ProviderError is a request the provider rejected.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("provider %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Body != "":
		return fmt.Sprintf("provider %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("provider %s failed with status %d", e.Op, e.StatusCode)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TimeoutError reports that a workspace never received an address within
// the attempt budget.
type TimeoutError struct {
	ID       string
	Attempts int
	LastErr  error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("workspace %s has no address after %d attempts (last error: %v)", e.ID, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("workspace %s has no address after %d attempts", e.ID, e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// ConfigurationError reports a failed downstream configuration step.
type ConfigurationError struct {
	Address  string
	ExitCode int
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("configuration of %s failed with exit code %d", e.Address, e.ExitCode)
	}
	return fmt.Sprintf("configuration of %s failed: %v", e.Address, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StateCorruptionError means persisted state exists but cannot be decoded.
// It must never be treated as absent state.
type StateCorruptionError struct {
	Key string
	Err error
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("state %q is corrupt: %v", e.Key, e.Err)
}

func (e *StateCorruptionError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientFetchError.
func IsTransient(err error) bool {
	var target *TransientFetchError
	return errors.As(err, &target)
}

// IsProviderError reports whether err is a ProviderError.
func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsConfigurationFailure reports whether err is a ConfigurationError.
func IsConfigurationFailure(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsStateCorruption reports whether err is a StateCorruptionError.
func IsStateCorruption(err error) bool {
	var target *StateCorruptionError
	return errors.As(err, &target)
}
