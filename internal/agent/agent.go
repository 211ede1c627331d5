// internal/agent/agent.go
//
// Toy agents that "work" plan tasks and report what they are doing to
// the dashboard. Reporting is strictly best-effort: a run must finish
// with identical results whether or not the dashboard exists, so every
// reporter failure is swallowed here and only noted in the logbook.

package agent

import (
	"context"

	"swarmcycle/internal/iteration"
	"swarmcycle/internal/logbook"
)

// Reporter is the slice of the dashboard client the agents need.
type Reporter interface {
	RegisterAgent(ctx context.Context, id, name, role string) error
	UpdateAgent(ctx context.Context, agentID, status, activity string) error
	PostActivity(ctx context.Context, agent, message string) error
}

// Agent is a single named team member backed by a best-effort reporter.
// A nil reporter disables dashboard traffic entirely.
type Agent struct {
	Name string
	Role string

	reporter Reporter
	logbook  *logbook.Logbook
}

// New builds an agent. The reporter and logbook may both be nil.
func New(name, role string, reporter Reporter, lb *logbook.Logbook) *Agent {
	return &Agent{Name: name, Role: role, reporter: reporter, logbook: lb}
}

// Setup registers the agent with the dashboard. Failures are swallowed.
func (a *Agent) Setup(ctx context.Context) {
	if a == nil || a.reporter == nil {
		return
	}
	if err := a.reporter.RegisterAgent(ctx, a.Name, a.Name, a.Role); err != nil {
		a.logbook.Warn("could not register %s with dashboard: %v", a.Name, err)
	}
}

// Report posts the agent's status and an activity line. Failures are
// swallowed; the returned state of the run never depends on them.
func (a *Agent) Report(ctx context.Context, status, activity string) {
	if a == nil || a.reporter == nil {
		return
	}
	if err := a.reporter.UpdateAgent(ctx, a.Name, status, activity); err != nil {
		a.logbook.Warn("dashboard update from %s dropped: %v", a.Name, err)
	}
	if err := a.reporter.PostActivity(ctx, a.Name, activity); err != nil {
		a.logbook.Warn("dashboard activity from %s dropped: %v", a.Name, err)
	}
}

// Team maps plan roles to the agents that cover them. It implements
// iteration.Crew.
type Team struct {
	members map[iteration.Role]*Agent
}

// NewTeam builds a team from a roster. Members covering an unknown role
// are skipped; tasks for an uncovered role simply go unreported.
func NewTeam(roster []Member, reporter Reporter, lb *logbook.Logbook) *Team {
	members := make(map[iteration.Role]*Agent, len(roster))
	for _, member := range roster {
		role := iteration.Role(member.Covers)
		if _, known := members[role]; known {
			continue
		}
		members[role] = New(member.Name, member.Role, reporter, lb)
	}
	return &Team{members: members}
}

// Member returns the agent covering the given role, if any.
func (t *Team) Member(role iteration.Role) *Agent {
	if t == nil {
		return nil
	}
	return t.members[role]
}

// Setup registers every team member with the dashboard.
func (t *Team) Setup(ctx context.Context) {
	if t == nil {
		return
	}
	for _, role := range iteration.Roles() {
		t.members[role].Setup(ctx)
	}
}

// Report forwards a status update through the member covering role.
func (t *Team) Report(ctx context.Context, role iteration.Role, status, activity string) {
	t.Member(role).Report(ctx, status, activity)
}
