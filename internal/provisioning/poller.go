package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/surfspot/internal/util/retry"
	"github.com/imamik/surfspot/internal/workspace"
)

// Readiness polling defaults.
const (
	DefaultPollAttempts = 30
	DefaultPollInterval = 20 * time.Second
)

var errNoAddress = errors.New("no address assigned yet")

// Poller waits for a workspace to receive a network address.
type Poller struct {
	provider workspace.Provider
	attempts int
	interval time.Duration
	observer Observer
	metrics  bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollObserver sets the observer that receives one event per failed
// attempt.
func WithPollObserver(o Observer) PollerOption {
	return func(p *Poller) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithPollMetrics enables the poll_attempts histogram.
func WithPollMetrics(enabled bool) PollerOption {
	return func(p *Poller) {
		p.metrics = enabled
	}
}

// NewPoller returns a poller that makes at most attempts Get calls,
// interval apart. Non-positive values fall back to the defaults.
func NewPoller(provider workspace.Provider, attempts int, interval time.Duration, opts ...PollerOption) *Poller {
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	if interval < 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		provider: provider,
		attempts: attempts,
		interval: interval,
		observer: NewSlogObserver(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempts returns the attempt budget.
func (p *Poller) Attempts() int { return p.attempts }

// WaitForRecord polls id until its record carries an address. A failed
// Get consumes one attempt like an empty address does. When the budget is
// spent the error is a *workspace.TimeoutError; cancellation of ctx
// returns the context error instead.
func (p *Poller) WaitForRecord(ctx context.Context, id string) (*workspace.Record, error) {
	var (
		found   *workspace.Record
		lastErr error
		made    int
	)

	err := retry.WithExponentialBackoff(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return retry.Fatal(err)
		}
		made++
		rec, err := p.provider.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Fatal(ctx.Err())
			}
			lastErr = err
			return err
		}
		if !rec.HasAddress() {
			lastErr = nil
			return errNoAddress
		}
		found = rec
		return nil
	},
		retry.WithMaxAttempts(p.attempts),
		retry.WithFixedDelay(p.interval),
		retry.WithOnRetry(func(attempt int, err error) {
			var logged error
			if !errors.Is(err, errNoAddress) {
				logged = err
			}
			LogPollAttempt(p.observer, id, attempt, logged)
		}),
	)

	if err == nil {
		if p.metrics {
			recordPollMetric(made)
		}
		return found, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("waiting for workspace %s: %w", id, ctxErr)
	}
	if _, ok := retry.IsExhausted(err); ok {
		return nil, &workspace.TimeoutError{ID: id, Attempts: made, LastErr: lastErr}
	}
	return nil, err
}

// WaitForAddress is WaitForRecord returning only the address.
func (p *Poller) WaitForAddress(ctx context.Context, id string) (string, error) {
	rec, err := p.WaitForRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.Address, nil
}
