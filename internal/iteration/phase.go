// internal/iteration/phase.go
//
// Phase progression for a single iteration run. The order is fixed:
// planning -> approval -> building -> complete. There is no branching
// and no way to revisit an earlier phase within a run.

package iteration

// Phase represents a stage in the iteration workflow.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseApproval
	PhaseBuilding
	PhaseComplete
)

// String returns the canonical label used in state records and logs.
func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseApproval:
		return "approval"
	case PhaseBuilding:
		return "building"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// FriendlyName returns a short description suitable for display.
func (p Phase) FriendlyName() string {
	switch p {
	case PhasePlanning:
		return "Planning"
	case PhaseApproval:
		return "Awaiting Approval"
	case PhaseBuilding:
		return "Building"
	case PhaseComplete:
		return "Complete"
	default:
		return p.String()
	}
}

// Next returns the next phase in the workflow.
func (p Phase) Next() Phase {
	if p >= PhaseComplete {
		return PhaseComplete
	}
	return p + 1
}

// IsTerminal returns true once the run has finished.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}

// Order lists every phase a run visits, in visit order.
func Order() []Phase {
	return []Phase{PhasePlanning, PhaseApproval, PhaseBuilding, PhaseComplete}
}
