package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/inventory"
	"github.com/imamik/surfspot/internal/state"
	"github.com/imamik/surfspot/internal/util/naming"
	"github.com/imamik/surfspot/internal/workspace"
)

// CheckpointMode controls when an observed change token is persisted.
type CheckpointMode string

const (
	// CheckpointBeforeCreate persists the token before the workspace is
	// created. A crash or failure later in the cycle does not re-trigger
	// for the same change.
	CheckpointBeforeCreate CheckpointMode = "before-create"
	// CheckpointAfterConfigure persists the token only once configuration
	// succeeded. A failed cycle re-triggers on the next run.
	CheckpointAfterConfigure CheckpointMode = "after-configure"
)

// DefaultGracePeriod is the wait between successful configuration and
// deletion.
const DefaultGracePeriod = 60 * time.Second

// Options are the immutable per-session settings of an Orchestrator.
type Options struct {
	// Template is the creation request document. It is never modified.
	Template  map[string]any
	HostField string

	NamePrefix string
	NameLength int

	Checkpoint        CheckpointMode
	TriggerOnFirstRun bool

	PollAttempts int
	PollInterval time.Duration
	GracePeriod  time.Duration

	// SSHUser and SSHKeyPath are written to the inventory entry.
	SSHUser    string
	SSHKeyPath string
	// PruneInventory removes entries for other addresses from the group.
	PruneInventory bool
}

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Detector     change.Detector
	Provider     workspace.Provider
	Checkpoints  *state.Checkpoints
	Inventory    *inventory.File
	Configurator configure.Configurator
	// Prober is optional. When set it must succeed before configuration.
	Prober Prober
}

// Prober checks that a workspace address accepts connections.
type Prober interface {
	Probe(ctx context.Context, address string) error
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context, address string) error

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context, address string) error { return f(ctx, address) }

// Orchestrator runs provisioning cycles.
type Orchestrator struct {
	deps          Dependencies
	opts          Options
	poller        *Poller
	observer      Observer
	enableMetrics bool
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observer = o
		}
	}
}

// WithMetrics enables Prometheus metrics recording.
func WithMetrics(enabled bool) Option {
	return func(orc *Orchestrator) {
		orc.enableMetrics = enabled
	}
}

// WithClock overrides the time source used for reports and snapshots.
func WithClock(now func() time.Time) Option {
	return func(orc *Orchestrator) {
		if now != nil {
			orc.now = now
		}
	}
}

// New validates deps and returns an Orchestrator.
func New(deps Dependencies, opts Options, options ...Option) (*Orchestrator, error) {
	var errs []error
	if deps.Detector == nil {
		errs = append(errs, errors.New("change detector is required"))
	}
	if deps.Provider == nil {
		errs = append(errs, errors.New("workspace provider is required"))
	}
	if deps.Checkpoints == nil {
		errs = append(errs, errors.New("state checkpoints are required"))
	}
	if deps.Inventory == nil {
		errs = append(errs, errors.New("inventory is required"))
	}
	if deps.Configurator == nil {
		errs = append(errs, errors.New("configurator is required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if opts.NamePrefix == "" {
		opts.NamePrefix = naming.DefaultPrefix
	}
	if opts.NameLength <= 0 {
		opts.NameLength = naming.DefaultSuffixLength
	}
	if opts.HostField == "" {
		opts.HostField = workspace.DefaultHostField
	}
	switch opts.Checkpoint {
	case "":
		opts.Checkpoint = CheckpointBeforeCreate
	case CheckpointBeforeCreate, CheckpointAfterConfigure:
	default:
		return nil, fmt.Errorf("unknown checkpoint mode %q", opts.Checkpoint)
	}
	if opts.GracePeriod < 0 {
		opts.GracePeriod = DefaultGracePeriod
	}

	o := &Orchestrator{
		deps:     deps,
		opts:     opts,
		observer: NewSlogObserver(nil),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	o.poller = NewPoller(deps.Provider, opts.PollAttempts, opts.PollInterval,
		WithPollObserver(o.observer),
		WithPollMetrics(o.enableMetrics),
	)
	return o, nil
}

// cycle carries the state of one run through the lifecycle.
type cycle struct {
	context.Context

	o        *Orchestrator
	state    State
	report   *CycleReport
	observer Observer

	token  change.Token
	name   string
	record *workspace.Record
}

// phase is one step of the lifecycle, entered by transitioning to state.
type phase struct {
	state State
	run   func(c *cycle) error
}

var (
	createPhase    = phase{StateCreating, (*cycle).create}
	awaitPhase     = phase{StateAwaitingAddress, (*cycle).await}
	configurePhase = phase{StateConfiguring, (*cycle).configure}
	deletePhase    = phase{StateDeleting, (*cycle).delete}
)

func (o *Orchestrator) newCycle(ctx context.Context) *cycle {
	return &cycle{
		Context:  ctx,
		o:        o,
		state:    StateIdle,
		report:   &CycleReport{Started: o.now()},
		observer: o.observer,
	}
}

func (c *cycle) transition(to State) {
	c.report.Transitions = append(c.report.Transitions, Transition{From: c.state, To: to, At: c.o.now()})
	LogTransition(c.observer, c.state, to)
	c.state = to
}

// runPhases executes phases in order and aborts on the first failure.
func (c *cycle) runPhases(phases []phase) (*CycleReport, error) {
	for _, p := range phases {
		c.transition(p.state)
		if err := p.run(c); err != nil {
			return c.abort(err)
		}
	}
	c.transition(StateIdle)
	return c.finish(OutcomeCompleted), nil
}

func (c *cycle) finish(outcome Outcome) *CycleReport {
	c.report.Outcome = outcome
	c.report.Finished = c.o.now()
	if c.o.enableMetrics {
		recordCycleMetric(c.report)
	}

	if outcome != OutcomeAborted {
		c.observer.Event(Event{
			Type:     EventCycleCompleted,
			State:    c.state,
			Resource: c.name,
			Message:  fmt.Sprintf("cycle %s in %v", outcome, c.report.Finished.Sub(c.report.Started).Round(time.Millisecond)),
			Fields:   map[string]string{"outcome": string(outcome)},
		})
	}
	return c.report
}

func (c *cycle) abort(err error) (*CycleReport, error) {
	failed := c.state
	c.transition(StateAborted)
	if c.o.enableMetrics {
		recordAbortMetric(failed)
	}
	c.observer.Event(Event{
		Type:     EventCycleAborted,
		State:    failed,
		Resource: c.name,
		Message:  "cycle aborted",
		Err:      err,
	})
	return c.finish(OutcomeAborted), &AbortedError{State: failed, Err: err}
}

// RunCycle performs one detect → create → await → configure → delete pass.
// A cycle that sees no change, records a first baseline, or cannot read the
// change source ends Idle with a nil error. Any other failure returns an
// *AbortedError and leaves an existing workspace in place.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleReport, error) {
	c := o.newCycle(ctx)
	c.observer.Event(Event{Type: EventCycleStarted, State: StateIdle, Message: "starting cycle"})

	c.transition(StateDetecting)
	proceed, err := c.detect()
	if err != nil {
		return c.abort(err)
	}
	if !proceed {
		c.transition(StateIdle)
		return c.finish(OutcomeIdle), nil
	}

	return c.runPhases([]phase{createPhase, awaitPhase, configurePhase, deletePhase})
}

// detect reports whether the cycle should provision.
func (c *cycle) detect() (bool, error) {
	cp := c.o.deps.Checkpoints

	previous, hasPrevious, err := cp.Token(c)
	if err != nil {
		return false, fmt.Errorf("failed to read last change token: %w", err)
	}

	current, err := c.o.deps.Detector.Detect(c)
	if err != nil {
		if workspace.IsTransient(err) {
			c.report.FetchErr = err
			c.observer.Event(Event{
				Type:    EventChangeFetchError,
				State:   StateDetecting,
				Message: "change source unavailable, retrying next cycle",
				Err:     err,
			})
			return false, nil
		}
		return false, fmt.Errorf("failed to detect change: %w", err)
	}
	c.report.Token = string(current)

	if !hasPrevious && !c.o.opts.TriggerOnFirstRun {
		if err := cp.SetToken(c, current); err != nil {
			return false, fmt.Errorf("failed to record baseline token: %w", err)
		}
		c.report.Baseline = true
		c.observer.Event(Event{
			Type:    EventChangeBaseline,
			State:   StateDetecting,
			Message: "recorded baseline change token",
			Fields:  map[string]string{"token": string(current)},
		})
		return false, nil
	}

	if hasPrevious && !change.HasChanged(current, previous) {
		c.observer.Event(Event{
			Type:    EventChangeUnchanged,
			State:   StateDetecting,
			Message: "no change",
			Fields:  map[string]string{"token": string(current)},
		})
		return false, nil
	}

	c.token = current
	c.observer.Event(Event{
		Type:    EventChangeDetected,
		State:   StateDetecting,
		Message: "change detected",
		Fields:  map[string]string{"token": string(current), "previous": string(previous)},
	})
	return true, nil
}

func (c *cycle) create() error {
	cp := c.o.deps.Checkpoints
	opts := c.o.opts

	// The pending token travels with the workspace so a resumed cycle
	// commits the change it was created for.
	pending := c.token
	if opts.Checkpoint == CheckpointBeforeCreate {
		if err := cp.SetToken(c, c.token); err != nil {
			return fmt.Errorf("failed to persist change token: %w", err)
		}
		pending = ""
	}
	if err := cp.SetPendingToken(c, pending); err != nil {
		return fmt.Errorf("failed to persist pending change token: %w", err)
	}

	name, err := naming.Workspace(opts.NamePrefix, opts.NameLength)
	if err != nil {
		return err
	}
	req, err := workspace.NewRequest(opts.Template, name, opts.HostField)
	if err != nil {
		return err
	}
	c.name = name
	c.report.WorkspaceName = name
	c.observer = c.observer.WithFields(map[string]string{"workspace": name})

	// The name goes down first so a crash during Create can still be
	// resumed or torn down by name.
	if err := cp.SetWorkspace(c, name, ""); err != nil {
		return fmt.Errorf("failed to persist workspace name: %w", err)
	}

	c.observer.Event(Event{Type: EventWorkspaceCreating, State: StateCreating, Resource: name, Message: "creating workspace"})
	rec, err := c.o.deps.Provider.Create(c, req)
	if err != nil {
		return fmt.Errorf("failed to create workspace %s: %w", name, err)
	}
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("provider accepted workspace %s without returning an id", name)
	}
	if rec.Name == "" {
		rec.Name = name
	}

	if err := cp.SetWorkspace(c, name, rec.ID); err != nil {
		return fmt.Errorf("failed to persist workspace id: %w", err)
	}
	c.record = rec
	c.report.WorkspaceID = rec.ID
	LogWorkspaceCreated(c.observer, name, rec.ID)
	return nil
}

func (c *cycle) await() error {
	rec, err := c.o.poller.WaitForRecord(c, c.record.ID)
	if err != nil {
		LogWorkspaceLeft(c.observer, StateAwaitingAddress, c.name, c.record.ID, err)
		return err
	}
	if rec.Name == "" {
		rec.Name = c.name
	}
	c.record = rec
	c.report.Address = rec.Address
	c.observer.Event(Event{
		Type:     EventAddressAssigned,
		State:    StateAwaitingAddress,
		Resource: c.name,
		Message:  "workspace is reachable",
		Fields:   map[string]string{"id": rec.ID, "address": rec.Address},
	})
	return nil
}

func (c *cycle) configure() error {
	deps := c.o.deps
	opts := c.o.opts
	rec := c.record

	if err := deps.Checkpoints.SetLookup(c, workspace.NewLookupResult(rec, c.o.now())); err != nil {
		return fmt.Errorf("failed to persist lookup result: %w", err)
	}

	entry := inventory.NewEntry(rec.Address, opts.SSHUser, opts.SSHKeyPath)
	if _, err := deps.Inventory.Ensure(entry, opts.PruneInventory); err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}

	if deps.Prober != nil {
		if err := deps.Prober.Probe(c, rec.Address); err != nil {
			LogWorkspaceLeft(c.observer, StateConfiguring, c.name, rec.ID, err)
			return &workspace.ConfigurationError{Address: rec.Address, Err: fmt.Errorf("reachability probe failed: %w", err)}
		}
	}

	target := configure.Target{Name: c.name, Address: rec.Address, InventoryPath: deps.Inventory.Path()}
	if err := deps.Configurator.Configure(c, target); err != nil {
		LogWorkspaceLeft(c.observer, StateConfiguring, c.name, rec.ID, err)
		return err
	}
	c.observer.Event(Event{
		Type:     EventConfigured,
		State:    StateConfiguring,
		Resource: c.name,
		Message:  "workspace configured",
		Fields:   map[string]string{"address": rec.Address},
	})

	if opts.Checkpoint == CheckpointAfterConfigure && c.token != "" {
		if err := deps.Checkpoints.SetToken(c, c.token); err != nil {
			return fmt.Errorf("failed to persist change token: %w", err)
		}
		if err := deps.Checkpoints.SetPendingToken(c, ""); err != nil {
			return fmt.Errorf("failed to clear pending change token: %w", err)
		}
	}
	return nil
}

func (c *cycle) delete() error {
	if err := sleepContext(c, c.o.opts.GracePeriod); err != nil {
		LogWorkspaceLeft(c.observer, StateDeleting, c.name, c.record.ID, err)
		return fmt.Errorf("interrupted during grace period: %w", err)
	}

	if err := c.o.deps.Provider.Delete(c, c.record.ID); err != nil {
		c.report.DeleteErr = err
		c.observer.Event(Event{
			Type:     EventDeleteFailed,
			State:    StateDeleting,
			Resource: c.name,
			Message:  "failed to delete workspace, it must be removed manually",
			Fields:   map[string]string{"id": c.record.ID},
			Err:      err,
		})
		return nil
	}
	LogWorkspaceDeleted(c.observer, c.name, c.record.ID)
	return nil
}

// Resume continues a cycle that stopped after its workspace was created.
// The workspace is found by its persisted name; when there is none the
// error wraps ErrNothingToResume.
func (o *Orchestrator) Resume(ctx context.Context) (*CycleReport, error) {
	name, ok, err := o.deps.Checkpoints.WorkspaceName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace name: %w", err)
	}
	if !ok {
		return nil, ErrNothingToResume
	}

	rec, err := o.deps.Provider.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up workspace %s: %w", name, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("workspace %s: %w", name, ErrNothingToResume)
	}

	pending, _, err := o.deps.Checkpoints.PendingToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending change token: %w", err)
	}

	c := o.newCycle(ctx)
	c.name = name
	c.record = rec
	c.token = pending
	c.report.Token = string(pending)
	c.report.WorkspaceName = name
	c.report.WorkspaceID = rec.ID
	c.observer = c.observer.WithFields(map[string]string{"workspace": name})
	c.observer.Event(Event{Type: EventCycleStarted, State: StateIdle, Resource: name, Message: "resuming workspace"})

	return c.runPhases([]phase{awaitPhase, configurePhase, deletePhase})
}

// Teardown deletes the most recently recorded workspace. The persisted
// name is preferred; otherwise the last lookup result is used, but only if
// the provider still reports a workspace with the recorded name under that
// id. A corrupt lookup result is returned as an error and nothing is
// deleted.
func (o *Orchestrator) Teardown(ctx context.Context) (*workspace.Record, error) {
	cp := o.deps.Checkpoints

	name, ok, err := cp.WorkspaceName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace name: %w", err)
	}
	if ok {
		rec, err := o.deps.Provider.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up workspace %s: %w", name, err)
		}
		if rec != nil {
			return rec, o.teardown(ctx, rec)
		}
	}

	lookup, err := cp.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	if lookup == nil {
		return nil, ErrNothingToResume
	}

	rec, err := o.deps.Provider.Get(ctx, lookup.WorkspaceID)
	if err != nil {
		if workspace.IsNotFound(err) {
			return nil, fmt.Errorf("workspace %s: %w", lookup.WorkspaceID, ErrNothingToResume)
		}
		return nil, err
	}
	if lookup.Name != "" && rec.Name != lookup.Name {
		return nil, fmt.Errorf("workspace %s is named %q but %q was recorded, refusing to delete", rec.ID, rec.Name, lookup.Name)
	}
	return rec, o.teardown(ctx, rec)
}

func (o *Orchestrator) teardown(ctx context.Context, rec *workspace.Record) error {
	if err := o.deps.Provider.Delete(ctx, rec.ID); err != nil {
		o.observer.Event(Event{
			Type:     EventDeleteFailed,
			State:    StateDeleting,
			Resource: rec.Name,
			Message:  "failed to delete workspace",
			Fields:   map[string]string{"id": rec.ID},
			Err:      err,
		})
		return fmt.Errorf("failed to delete workspace %s: %w", rec.ID, err)
	}
	LogWorkspaceDeleted(o.observer, rec.Name, rec.ID)
	return nil
}

// Status is the persisted lifecycle state plus the provider's live view of
// the recorded workspace.
type Status struct {
	Token         string
	WorkspaceName string
	WorkspaceID   string
	Lookup        *workspace.LookupResult
	Live          *workspace.Record
}

// Status reads the persisted checkpoints and, when a workspace name is
// recorded, looks it up at the provider.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	cp := o.deps.Checkpoints
	st := &Status{}

	token, _, err := cp.Token(ctx)
	if err != nil {
		return nil, err
	}
	st.Token = string(token)

	if st.WorkspaceName, _, err = cp.WorkspaceName(ctx); err != nil {
		return nil, err
	}
	if st.WorkspaceID, _, err = cp.WorkspaceID(ctx); err != nil {
		return nil, err
	}
	if st.Lookup, err = cp.Lookup(ctx); err != nil {
		return nil, err
	}

	if st.WorkspaceName != "" {
		if st.Live, err = o.deps.Provider.FindByName(ctx, st.WorkspaceName); err != nil {
			return nil, fmt.Errorf("failed to look up workspace %s: %w", st.WorkspaceName, err)
		}
	}
	return st, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
