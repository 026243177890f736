package provisioning

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// Observer receives structured lifecycle events.
type Observer interface {
	// Event emits a structured event.
	Event(event Event)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured lifecycle event.
type Event struct {
	Type      EventType
	State     State
	Message   string
	Resource  string // workspace name if known
	Timestamp time.Time
	Fields    map[string]string
	Err       error
}

// EventType represents the type of lifecycle event.
type EventType string

const (
	EventCycleStarted     EventType = "cycle.started"
	EventCycleCompleted   EventType = "cycle.completed"
	EventCycleAborted     EventType = "cycle.aborted"
	EventStateTransition  EventType = "state.transition"
	EventChangeDetected   EventType = "change.detected"
	EventChangeUnchanged  EventType = "change.unchanged"
	EventChangeBaseline   EventType = "change.baseline"
	EventChangeFetchError EventType = "change.fetch_error"

	EventWorkspaceCreating EventType = "workspace.creating"
	EventWorkspaceCreated  EventType = "workspace.created"
	EventPollAttempt       EventType = "poll.attempt"
	EventAddressAssigned   EventType = "workspace.address"
	EventConfigured        EventType = "workspace.configured"
	EventWorkspaceDeleted  EventType = "workspace.deleted"
	EventDeleteFailed      EventType = "workspace.delete_failed"
	EventWorkspaceLeft     EventType = "workspace.left_in_place"
)

// SlogObserver writes events to a slog.Logger.
type SlogObserver struct {
	logger        *slog.Logger
	contextFields map[string]string
}

// NewSlogObserver creates an observer writing to logger. A nil logger
// means slog.Default().
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{
		logger:        logger,
		contextFields: make(map[string]string),
	}
}

// Event implements Observer.
func (o *SlogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []slog.Attr{
		slog.String("event", string(event.Type)),
		slog.String("state", event.State.String()),
	}

	fields := make(map[string]string, len(o.contextFields)+len(event.Fields)+1)
	maps.Copy(fields, o.contextFields)
	maps.Copy(fields, event.Fields)
	if event.Resource != "" {
		fields["workspace"] = event.Resource
	}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		attrs = append(attrs, slog.String(k, fields[k]))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	o.logger.LogAttrs(context.Background(), levelFor(event.Type), event.Message, attrs...)
}

// WithFields implements Observer.
func (o *SlogObserver) WithFields(fields map[string]string) Observer {
	merged := make(map[string]string, len(o.contextFields)+len(fields))
	maps.Copy(merged, o.contextFields)
	maps.Copy(merged, fields)
	return &SlogObserver{logger: o.logger, contextFields: merged}
}

func levelFor(t EventType) slog.Level {
	switch t {
	case EventCycleAborted, EventWorkspaceLeft, EventDeleteFailed:
		return slog.LevelError
	case EventChangeFetchError:
		return slog.LevelWarn
	case EventPollAttempt, EventStateTransition:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// LogTransition logs a state change.
func LogTransition(observer Observer, from, to State) {
	observer.Event(Event{
		Type:    EventStateTransition,
		State:   to,
		Message: fmt.Sprintf("%s -> %s", from, to),
		Fields:  map[string]string{"from": from.String()},
	})
}

// LogWorkspaceCreated logs a successful create request.
func LogWorkspaceCreated(observer Observer, name, id string) {
	observer.Event(Event{
		Type:     EventWorkspaceCreated,
		State:    StateCreating,
		Resource: name,
		Message:  "workspace created",
		Fields:   map[string]string{"id": id},
	})
}

// LogPollAttempt logs a readiness poll that found no address yet.
func LogPollAttempt(observer Observer, id string, attempt int, err error) {
	observer.Event(Event{
		Type:    EventPollAttempt,
		State:   StateAwaitingAddress,
		Message: fmt.Sprintf("no address yet (attempt %d)", attempt),
		Fields:  map[string]string{"id": id},
		Err:     err,
	})
}

// LogWorkspaceDeleted logs a successful delete.
func LogWorkspaceDeleted(observer Observer, name, id string) {
	observer.Event(Event{
		Type:     EventWorkspaceDeleted,
		State:    StateDeleting,
		Resource: name,
		Message:  "workspace deleted",
		Fields:   map[string]string{"id": id},
	})
}

// LogWorkspaceLeft logs a workspace that was left running after an abort.
func LogWorkspaceLeft(observer Observer, state State, name, id string, err error) {
	observer.Event(Event{
		Type:     EventWorkspaceLeft,
		State:    state,
		Resource: name,
		Message:  "workspace left in place for inspection",
		Fields:   map[string]string{"id": id},
		Err:      err,
	})
}
