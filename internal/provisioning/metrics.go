package provisioning

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/surfspot/internal/workspace"
)

var (
	// Cycle metrics
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surfspot",
			Subsystem: "lifecycle",
			Name:      "cycles_total",
			Help:      "Total number of lifecycle cycles by outcome",
		},
		[]string{"outcome"},
	)

	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "surfspot",
			Subsystem: "lifecycle",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of lifecycle cycles in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
		[]string{"outcome"},
	)

	abortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surfspot",
			Subsystem: "lifecycle",
			Name:      "aborts_total",
			Help:      "Total number of aborted cycles by the state they aborted in",
		},
		[]string{"state"},
	)

	// Readiness polling metrics
	pollAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "surfspot",
			Subsystem: "workspace",
			Name:      "poll_attempts",
			Help:      "Number of readiness polls needed before an address was assigned",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		},
	)

	// Provider API metrics
	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surfspot",
			Subsystem: "provider",
			Name:      "api_calls_total",
			Help:      "Total number of workspace provider API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	providerCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "surfspot",
			Subsystem: "provider",
			Name:      "api_latency_seconds",
			Help:      "Latency of workspace provider API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers the lifecycle metrics with reg. It is safe to
// call more than once; only the first call registers.
func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			cyclesTotal,
			cycleDuration,
			abortsTotal,
			pollAttempts,
			providerCallsTotal,
			providerCallLatency,
		)
	})
}

func recordCycleMetric(report *CycleReport) {
	outcome := string(report.Outcome)
	cyclesTotal.WithLabelValues(outcome).Inc()
	if !report.Started.IsZero() && !report.Finished.IsZero() {
		cycleDuration.WithLabelValues(outcome).Observe(report.Finished.Sub(report.Started).Seconds())
	}
}

func recordAbortMetric(state State) {
	abortsTotal.WithLabelValues(state.String()).Inc()
}

func recordPollMetric(attempts int) {
	pollAttempts.Observe(float64(attempts))
}

func recordProviderCall(operation string, duration time.Duration, err error) {
	providerCallsTotal.WithLabelValues(operation, providerResult(err)).Inc()
	providerCallLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func providerResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, workspace.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// instrumentedProvider records call counts and latency for every provider
// operation.
type instrumentedProvider struct {
	next workspace.Provider
}

// Instrument wraps p so that every call is recorded in the provider
// metrics.
func Instrument(p workspace.Provider) workspace.Provider {
	return &instrumentedProvider{next: p}
}

func (p *instrumentedProvider) Create(ctx context.Context, req workspace.Request) (*workspace.Record, error) {
	start := time.Now()
	rec, err := p.next.Create(ctx, req)
	recordProviderCall("create", time.Since(start), err)
	return rec, err
}

func (p *instrumentedProvider) Get(ctx context.Context, id string) (*workspace.Record, error) {
	start := time.Now()
	rec, err := p.next.Get(ctx, id)
	recordProviderCall("get", time.Since(start), err)
	return rec, err
}

func (p *instrumentedProvider) FindByName(ctx context.Context, name string) (*workspace.Record, error) {
	start := time.Now()
	rec, err := p.next.FindByName(ctx, name)
	recordProviderCall("find", time.Since(start), err)
	return rec, err
}

func (p *instrumentedProvider) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := p.next.Delete(ctx, id)
	recordProviderCall("delete", time.Since(start), err)
	return err
}
