package provisioning

import "time"

// State is a lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateCreating
	StateAwaitingAddress
	StateConfiguring
	StateDeleting
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDetecting:
		return "Detecting"
	case StateCreating:
		return "Creating"
	case StateAwaitingAddress:
		return "AwaitingAddress"
	case StateConfiguring:
		return "Configuring"
	case StateDeleting:
		return "Deleting"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Outcome summarises how a cycle ended.
type Outcome string

const (
	// OutcomeIdle means nothing was provisioned: no change, a baseline
	// was recorded, or the change source could not be read.
	OutcomeIdle Outcome = "idle"
	// OutcomeCompleted means the workspace was configured and deletion
	// was attempted.
	OutcomeCompleted Outcome = "completed"
	// OutcomeAborted means the cycle stopped with the workspace, if any,
	// left in place.
	OutcomeAborted Outcome = "aborted"
)

// CycleReport describes one cycle.
type CycleReport struct {
	Outcome     Outcome
	Transitions []Transition
	Started     time.Time
	Finished    time.Time

	// Token is the change token observed by this cycle.
	Token string
	// Baseline is set when the first observed token was only recorded.
	Baseline bool
	// FetchErr is the absorbed change-source failure, if any.
	FetchErr error

	WorkspaceName string
	WorkspaceID   string
	Address       string

	// DeleteErr is set when the final delete failed. The cycle still
	// counts as completed.
	DeleteErr error
}

// Final returns the state the cycle ended in.
func (r *CycleReport) Final() State {
	if r == nil || len(r.Transitions) == 0 {
		return StateIdle
	}
	return r.Transitions[len(r.Transitions)-1].To
}

// States returns the visited states in order, starting with the first
// transition's origin.
func (r *CycleReport) States() []State {
	if r == nil || len(r.Transitions) == 0 {
		return nil
	}
	out := []State{r.Transitions[0].From}
	for _, t := range r.Transitions {
		out = append(out, t.To)
	}
	return out
}
