// Package provisioning runs the ephemeral workspace lifecycle.
//
// One cycle moves through a fixed set of states:
//
//	Idle → Detecting → Creating → AwaitingAddress → Configuring → Deleting → Idle
//
// with Aborted reachable from every state after Detecting. A cycle that
// observes no change, or cannot read the change source, returns to Idle
// without side effects. A cycle that aborts leaves the workspace in place
// for inspection; Teardown removes it later.
//
// # Core Types
//
// Orchestrator drives cycles and records every transition in a CycleReport.
// Poller waits for a created workspace to receive an address.
// Watcher repeats cycles on a fixed schedule.
// Observer receives structured events; SlogObserver writes them to slog.
// Metrics exposes Prometheus counters and histograms for cycles, polls and
// provider calls.
package provisioning
