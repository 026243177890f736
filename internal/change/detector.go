package change

import (
	"context"
	"fmt"

	"github.com/imamik/surfspot/internal/workspace"
)

// Token identifies the latest observed change. Only equality is meaningful.
type Token string

// Detector reads the current change token from a source.
type Detector interface {
	Detect(ctx context.Context) (Token, error)
}

// HasChanged reports whether current differs from previous.
func HasChanged(current, previous Token) bool {
	return current != previous
}

func transient(source string, format string, args ...any) error {
	return &workspace.TransientFetchError{
		Source: source,
		Err:    fmt.Errorf(format, args...),
	}
}
