package provisioning

import (
	"errors"
	"fmt"

	"github.com/imamik/surfspot/internal/workspace"
)

// AbortedError is returned when a cycle aborts. State is the state the
// cycle was in when the failure occurred.
type AbortedError struct {
	State State
	Err   error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("cycle aborted in %s: %v", e.State, e.Err)
}

func (e *AbortedError) Unwrap() error { return e.Err }

// IsAborted reports whether err is an AbortedError.
func IsAborted(err error) bool {
	var target *AbortedError
	return errors.As(err, &target)
}

// ErrNothingToResume is returned by Resume and Teardown when no recorded
// workspace exists. It wraps workspace.ErrNotFound.
var ErrNothingToResume = fmt.Errorf("nothing to resume: %w", workspace.ErrNotFound)
