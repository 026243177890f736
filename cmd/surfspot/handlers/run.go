package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/surfspot/internal/logging"
	"github.com/imamik/surfspot/internal/provisioning"
)

// RunOptions are the flags of the run command.
type RunOptions struct {
	// Watch repeats cycles on the configured interval until interrupted.
	Watch bool
	// MetricsAddr serves Prometheus metrics on this address when set.
	MetricsAddr string
}

// Factory function variables for run - can be replaced in tests.
var (
	// newWatcher creates the watch-mode scheduler.
	newWatcher = func(cycler provisioning.Cycler, interval time.Duration, opts ...provisioning.WatcherOption) watcher {
		return provisioning.NewWatcher(cycler, interval, opts...)
	}

	// serveMetrics exposes the metrics registry until ctx is done.
	serveMetrics = defaultServeMetrics
)

type watcher interface {
	Run(ctx context.Context) error
	Counts() (cycles, aborted int)
	LastErr() error
}

// Run handles the run command.
//
// A single cycle detects a change and, if there is one, creates,
// configures and deletes one workspace. It returns an error only when the
// cycle aborted; no change and a completed cycle both exit cleanly. With
// Watch set, cycles repeat until ctx is cancelled and individual aborts
// are reported but do not stop the loop. Once stopped, the error of the
// last cycle is returned.
func Run(ctx context.Context, g Globals, opts RunOptions) error {
	cfg, closer, err := loadConfig(g)
	defer func() { _ = closer.Close() }()
	if err != nil {
		return err
	}

	metricsEnabled := opts.MetricsAddr != ""
	orc, err := buildOrchestrator(ctx, cfg, buildOptions{configure: true, metrics: metricsEnabled})
	if err != nil {
		return err
	}

	if metricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		provisioning.RegisterMetrics(reg)
		serve := serveMetrics
		go func() {
			if err := serve(ctx, opts.MetricsAddr, reg); err != nil {
				logging.Logger().Error("metrics server stopped", "error", err)
			}
		}()
	}

	if !opts.Watch {
		report, err := orc.RunCycle(ctx)
		printReport(report, err)
		if err != nil {
			return fmt.Errorf("cycle failed: %w", err)
		}
		return nil
	}

	w := newWatcher(orc, cfg.Lifecycle.WatchInterval,
		provisioning.WithWatchObserver(provisioning.NewSlogObserver(logging.Logger())),
		provisioning.WithCycleHook(func(report *provisioning.CycleReport, err error) {
			printReport(report, err)
		}),
	)

	logging.Logger().Info("watching for changes", "interval", cfg.Lifecycle.WatchInterval.String())
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cycles, aborted := w.Counts()
	_, _ = fmt.Fprintf(stdout, "Stopped after %d cycles (%d aborted)\n", cycles, aborted)
	if err := w.LastErr(); err != nil {
		return fmt.Errorf("last cycle failed: %w", err)
	}
	return nil
}

// printReport writes a short summary of a cycle. err is the cycle's
// error, if any.
func printReport(report *provisioning.CycleReport, err error) {
	if report == nil {
		return
	}

	switch report.Outcome {
	case provisioning.OutcomeIdle:
		switch {
		case report.FetchErr != nil:
			_, _ = fmt.Fprintf(stdout, "No change detected (change source unavailable: %v)\n", report.FetchErr)
		case report.Baseline:
			_, _ = fmt.Fprintf(stdout, "Recorded baseline %s\n", report.Token)
		default:
			_, _ = fmt.Fprintln(stdout, "No change detected")
		}
	case provisioning.OutcomeCompleted:
		_, _ = fmt.Fprintf(stdout, "Cycle completed for change %s\n", report.Token)
		_, _ = fmt.Fprintf(stdout, "  Workspace: %s (%s)\n", report.WorkspaceName, report.WorkspaceID)
		_, _ = fmt.Fprintf(stdout, "  Address:   %s\n", report.Address)
		if report.DeleteErr != nil {
			_, _ = fmt.Fprintf(stdout, "  Warning: workspace was not deleted: %v\n", report.DeleteErr)
		}
	case provisioning.OutcomeAborted:
		var aborted *provisioning.AbortedError
		if errors.As(err, &aborted) {
			_, _ = fmt.Fprintf(stdout, "Cycle aborted in state %s: %v\n", aborted.State, aborted.Err)
		} else {
			_, _ = fmt.Fprintln(stdout, "Cycle aborted")
		}
		if report.WorkspaceName != "" {
			_, _ = fmt.Fprintf(stdout, "  Workspace %s (%s) was left in place; run 'surfspot resume' or 'surfspot destroy'\n",
				report.WorkspaceName, report.WorkspaceID)
		}
	}
}

func defaultServeMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Logger().Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
