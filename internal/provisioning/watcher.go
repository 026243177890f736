package provisioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// DefaultWatchInterval is the pause between watch-mode cycles.
const DefaultWatchInterval = 5 * time.Minute

// Cycler runs one lifecycle cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (*CycleReport, error)
}

// Watcher repeats cycles on a fixed interval until its context ends.
// Cycles never overlap; an aborted cycle is reported and the next one
// runs on schedule.
type Watcher struct {
	cycler   Cycler
	interval time.Duration
	observer Observer
	onCycle  func(*CycleReport, error)

	mu      sync.Mutex
	cycles  int
	aborted int
	lastErr error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchObserver sets the observer for watch events.
func WithWatchObserver(o Observer) WatcherOption {
	return func(w *Watcher) {
		if o != nil {
			w.observer = o
		}
	}
}

// WithCycleHook registers a function called after every cycle.
func WithCycleHook(fn func(*CycleReport, error)) WatcherOption {
	return func(w *Watcher) {
		w.onCycle = fn
	}
}

// NewWatcher returns a Watcher running cycler every interval. A
// non-positive interval means DefaultWatchInterval.
func NewWatcher(cycler Cycler, interval time.Duration, opts ...WatcherOption) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	w := &Watcher{
		cycler:   cycler,
		interval: interval,
		observer: NewSlogObserver(nil),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the schedule with an immediate first cycle and blocks until
// ctx is done. A cycle in flight when ctx ends sees the cancellation
// itself; Run waits for it before returning.
func (w *Watcher) Run(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.runOnce(ctx) }),
		gocron.WithName("surfspot-cycle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule cycle job: %w", err)
	}

	w.observer.Event(Event{
		Type:    EventCycleStarted,
		State:   StateIdle,
		Message: fmt.Sprintf("watching every %v", w.interval),
	})
	s.Start()

	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := w.cycler.RunCycle(ctx)

	w.mu.Lock()
	w.cycles++
	if err != nil {
		w.aborted++
	}
	w.lastErr = err
	w.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		w.observer.Event(Event{
			Type:    EventCycleAborted,
			State:   report.Final(),
			Message: "cycle failed, continuing to watch",
			Err:     err,
		})
	}
	if w.onCycle != nil {
		w.onCycle(report, err)
	}
}

// Counts returns the number of cycles run and how many of them failed.
func (w *Watcher) Counts() (cycles, aborted int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cycles, w.aborted
}

// LastErr returns the error of the most recent cycle, or nil when it
// ended Idle.
func (w *Watcher) LastErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
