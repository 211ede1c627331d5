package iteration

import (
	"context"
	"fmt"
	"time"

	"swarmcycle/internal/backlog"
	"swarmcycle/internal/logbook"
)

// Default stand-in durations for work the toy agents pretend to do.
const (
	DefaultApprovalWait = 3 * time.Second
	DefaultTaskWait     = 1 * time.Second
)

// Crew executes plan tasks on behalf of the team roster. Implementations
// must swallow reporting failures; the runner never inspects them.
type Crew interface {
	// Setup registers every crew member with the dashboard.
	Setup(ctx context.Context)
	// Report announces what the member covering role is doing.
	Report(ctx context.Context, role Role, status, activity string)
}

type nopCrew struct{}

func (nopCrew) Setup(context.Context)                        {}
func (nopCrew) Report(context.Context, Role, string, string) {}

// ProgressKind discriminates progress notifications emitted during a run.
type ProgressKind int

const (
	ProgressPhase ProgressKind = iota
	ProgressPlanReady
	ProgressTaskStarted
	ProgressTaskCompleted
	ProgressMessage
)

// Progress is a single notification about run progress. Notifications are
// delivered synchronously on the runner's goroutine.
type Progress struct {
	Kind    ProgressKind
	Phase   Phase
	Task    Task
	Tasks   []Task // populated on ProgressPlanReady
	Message string
}

// Runner drives one iteration through its phases in a fixed order on a
// single goroutine. Waits stand in for real work; both the waits and the
// clock are injectable so tests can run instantly.
type Runner struct {
	crew         Crew
	logbook      *logbook.Logbook
	approvalWait time.Duration
	taskWait     time.Duration
	wait         func(ctx context.Context, d time.Duration) error
	clock        func() time.Time
	notify       func(Progress)
}

// Option customizes runner construction.
type Option func(*Runner)

// WithCrew attaches the agents that work building-phase tasks.
func WithCrew(crew Crew) Option {
	return func(r *Runner) {
		if crew != nil {
			r.crew = crew
		}
	}
}

// WithLogbook mirrors run messages into a persistent logbook.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(r *Runner) {
		r.logbook = lb
	}
}

// WithApprovalWait overrides the fixed approval-phase wait.
func WithApprovalWait(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.approvalWait = d
		}
	}
}

// WithTaskWait overrides the fixed per-task wait in the building phase.
func WithTaskWait(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.taskWait = d
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithWaiter replaces the sleep implementation (primarily for tests).
func WithWaiter(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if wait != nil {
			r.wait = wait
		}
	}
}

// WithProgress registers a callback for progress notifications.
func WithProgress(notify func(Progress)) Option {
	return func(r *Runner) {
		r.notify = notify
	}
}

// NewRunner builds a runner with the default simulated waits.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		crew:         nopCrew{},
		approvalWait: DefaultApprovalWait,
		taskWait:     DefaultTaskWait,
		wait:         waitContext,
		clock:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run executes planning, approval, and building in order and returns the
// final state. The only error path is context cancellation; dashboard
// availability never affects the result.
func (r *Runner) Run(ctx context.Context, items []backlog.Item) (State, error) {
	state := NewState(items)
	state.StartedAt = r.clock().UTC()
	r.emitPhase(state.Phase)

	// Planning: pure fan-out of the backlog into the task plan.
	state.Plan = BuildPlan(state.Backlog)
	r.emit(Progress{Kind: ProgressPlanReady, Phase: state.Phase, Tasks: append([]Task(nil), state.Plan.Tasks...)})
	r.logMessage(&state, fmt.Sprintf("Created plan with %d tasks", state.Plan.TotalTasks()))
	r.advance(&state)

	// Approval: a fixed wait stands in for product-owner sign-off.
	if err := r.wait(ctx, r.approvalWait); err != nil {
		return state, fmt.Errorf("iteration: approval interrupted: %w", err)
	}
	r.logMessage(&state, "Plan approved by product owner")
	r.advance(&state)

	// Building: each role works its tasks in plan order.
	r.crew.Setup(ctx)
	for _, role := range Roles() {
		for _, task := range state.Plan.ByRole(role) {
			r.emit(Progress{Kind: ProgressTaskStarted, Phase: state.Phase, Task: task})
			r.crew.Report(ctx, role, "busy", "Working on: "+task.Title)
			if err := r.wait(ctx, r.taskWait); err != nil {
				return state, fmt.Errorf("iteration: building interrupted: %w", err)
			}
			state.CompletedTasks = append(state.CompletedTasks, task.ID)
			r.crew.Report(ctx, role, "idle", "Completed: "+task.Title)
			r.emit(Progress{Kind: ProgressTaskCompleted, Phase: state.Phase, Task: task})
		}
	}
	r.logMessage(&state, fmt.Sprintf("Completed %d tasks", len(state.CompletedTasks)))
	r.advance(&state)

	state.FinishedAt = r.clock().UTC()
	return state, nil
}

func (r *Runner) advance(state *State) {
	state.Phase = state.Phase.Next()
	r.logbook.Info("Phase: %s", state.Phase)
	r.emitPhase(state.Phase)
}

func (r *Runner) logMessage(state *State, message string) {
	state.Log(message)
	r.logbook.Info("%s", message)
	r.emit(Progress{Kind: ProgressMessage, Phase: state.Phase, Message: message})
}

func (r *Runner) emitPhase(phase Phase) {
	r.emit(Progress{Kind: ProgressPhase, Phase: phase})
}

func (r *Runner) emit(p Progress) {
	if r.notify != nil {
		r.notify(p)
	}
}

// waitContext sleeps for d unless the context is canceled first.
func waitContext(ctx context.Context, d time.Duration) error {
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
