// Package netutil waits for workspace network endpoints.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultPortWaitTimeout bounds WaitForPort when the caller passes zero.
const DefaultPortWaitTimeout = 5 * time.Minute

const (
	dialTimeout   = 2 * time.Second
	checkInterval = time.Second
)

// WaitForPort waits until a TCP connection to host:port succeeds, checking
// immediately and then every second. It returns an error once timeout has
// elapsed or ctx is done.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultPortWaitTimeout
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = dial(ctx, address); lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("timeout waiting for %s: %w", address, lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func dial(ctx context.Context, address string) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}
