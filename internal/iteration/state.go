package iteration

import (
	"time"

	"github.com/google/uuid"

	"swarmcycle/internal/backlog"
)

// State is the flat record tracked across a single iteration run. It is
// owned by exactly one runner; nothing is shared between runs.
type State struct {
	RunID          string         `json:"run_id"`
	Phase          Phase          `json:"-"`
	Backlog        []backlog.Item `json:"backlog"`
	Plan           Plan           `json:"plan"`
	CompletedTasks []string       `json:"completed_tasks"`
	Messages       []string       `json:"messages"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at,omitempty"`
}

// NewState seeds run state for the given backlog. The run begins in the
// planning phase with an empty plan.
func NewState(items []backlog.Item) State {
	cloned := make([]backlog.Item, len(items))
	copy(cloned, items)
	return State{
		RunID:   uuid.NewString(),
		Phase:   PhasePlanning,
		Backlog: cloned,
	}
}

// Log appends a message to the run's message log.
func (s *State) Log(message string) {
	if s == nil || message == "" {
		return
	}
	s.Messages = append(s.Messages, message)
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	clone := s
	clone.Backlog = append([]backlog.Item(nil), s.Backlog...)
	clone.Plan.Tasks = append([]Task(nil), s.Plan.Tasks...)
	clone.CompletedTasks = append([]string(nil), s.CompletedTasks...)
	clone.Messages = append([]string(nil), s.Messages...)
	return clone
}
