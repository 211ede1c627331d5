package iteration

import (
	"context"
	"errors"
	"testing"
	"time"

	"swarmcycle/internal/backlog"
)

// recordingCrew captures every report the runner makes.
type recordingCrew struct {
	setups  int
	reports []string
}

func (c *recordingCrew) Setup(context.Context) {
	c.setups++
}

func (c *recordingCrew) Report(_ context.Context, role Role, status, activity string) {
	c.reports = append(c.reports, string(role)+"/"+status+": "+activity)
}

func instantRunner(opts ...Option) *Runner {
	base := []Option{
		WithApprovalWait(0),
		WithTaskWait(0),
		WithClock(func() time.Time { return time.Unix(1730000000, 0).UTC() }),
	}
	return NewRunner(append(base, opts...)...)
}

func TestRunVisitsPhasesInOrder(t *testing.T) {
	var phases []Phase
	runner := instantRunner(WithProgress(func(p Progress) {
		if p.Kind == ProgressPhase {
			phases = append(phases, p.Phase)
		}
	}))
	state, err := runner.Run(context.Background(), backlog.Sample())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []Phase{PhasePlanning, PhaseApproval, PhaseBuilding, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("expected %d phase notifications, got %d: %v", len(want), len(phases), phases)
	}
	for i, phase := range want {
		if phases[i] != phase {
			t.Fatalf("phase[%d] = %s, want %s", i, phases[i], phase)
		}
	}
	if state.Phase != PhaseComplete {
		t.Fatalf("final phase = %s, want complete", state.Phase)
	}
}

func TestRunEmptyBacklogStillCompletes(t *testing.T) {
	var phases []Phase
	runner := instantRunner(WithProgress(func(p Progress) {
		if p.Kind == ProgressPhase {
			phases = append(phases, p.Phase)
		}
	}))
	state, err := runner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if state.Phase != PhaseComplete {
		t.Fatalf("final phase = %s, want complete", state.Phase)
	}
	if state.Plan.TotalTasks() != 0 {
		t.Fatalf("expected empty plan, got %d tasks", state.Plan.TotalTasks())
	}
	if len(state.CompletedTasks) != 0 {
		t.Fatalf("expected no completed tasks, got %v", state.CompletedTasks)
	}
	if len(phases) != 4 {
		t.Fatalf("all phases must execute for an empty backlog, got %v", phases)
	}
}

func TestRunCompletesEveryDerivedTask(t *testing.T) {
	runner := instantRunner()
	state, err := runner.Run(context.Background(), backlog.Sample())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.CompletedTasks) != state.Plan.TotalTasks() {
		t.Fatalf("completed %d of %d tasks", len(state.CompletedTasks), state.Plan.TotalTasks())
	}
	planned := map[string]bool{}
	for _, id := range state.Plan.TaskIDs() {
		planned[id] = true
	}
	for _, id := range state.CompletedTasks {
		if !planned[id] {
			t.Fatalf("completed unknown task %s", id)
		}
		delete(planned, id)
	}
	if len(planned) != 0 {
		t.Fatalf("tasks never completed: %v", planned)
	}
}

func TestRunWorksRolesInFixedOrder(t *testing.T) {
	crew := &recordingCrew{}
	runner := instantRunner(WithCrew(crew))
	state, err := runner.Run(context.Background(), backlog.TestItem())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if crew.setups != 1 {
		t.Fatalf("crew setup called %d times, want 1", crew.setups)
	}
	want := []string{
		"backend/busy: Working on: Backend: Hello World API",
		"backend/idle: Completed: Backend: Hello World API",
		"frontend/busy: Working on: Frontend: Hello World API",
		"frontend/idle: Completed: Frontend: Hello World API",
		"qa/busy: Working on: Tests: Hello World API",
		"qa/idle: Completed: Tests: Hello World API",
	}
	if len(crew.reports) != len(want) {
		t.Fatalf("expected %d reports, got %d: %v", len(want), len(crew.reports), crew.reports)
	}
	for i, report := range want {
		if crew.reports[i] != report {
			t.Fatalf("report[%d] = %q, want %q", i, crew.reports[i], report)
		}
	}
	if state.Phase != PhaseComplete {
		t.Fatalf("final phase = %s", state.Phase)
	}
}

func TestRunRecordsMessages(t *testing.T) {
	runner := instantRunner()
	state, err := runner.Run(context.Background(), backlog.TestItem())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []string{
		"Created plan with 3 tasks",
		"Plan approved by product owner",
		"Completed 3 tasks",
	}
	if len(state.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), state.Messages)
	}
	for i, message := range want {
		if state.Messages[i] != message {
			t.Fatalf("message[%d] = %q, want %q", i, state.Messages[i], message)
		}
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(
		WithApprovalWait(time.Hour),
		WithTaskWait(time.Hour),
	)
	done := make(chan struct{})
	var state State
	var err error
	go func() {
		defer close(done)
		state, err = runner.Run(ctx, backlog.Sample())
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if state.Phase == PhaseComplete {
		t.Fatalf("canceled run must not report completion")
	}
}

func TestRunAssignsRunIDAndTimestamps(t *testing.T) {
	fixed := time.Unix(1730000000, 0).UTC()
	runner := instantRunner(WithClock(func() time.Time { return fixed }))
	state, err := runner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if state.RunID == "" {
		t.Fatalf("run id must be assigned")
	}
	if !state.StartedAt.Equal(fixed) || !state.FinishedAt.Equal(fixed) {
		t.Fatalf("timestamps not taken from clock: %v, %v", state.StartedAt, state.FinishedAt)
	}
}
