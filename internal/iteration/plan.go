package iteration

import (
	"fmt"

	"swarmcycle/internal/backlog"
)

// Role identifies which member of the team a task is assigned to.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
	RoleQA       Role = "qa"
)

// Roles returns every assignee role in the order tasks are worked.
func Roles() []Role {
	return []Role{RoleBackend, RoleFrontend, RoleQA}
}

// Task is a single unit of work derived from a backlog item.
type Task struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Assignee Role   `json:"assignee" yaml:"assignee"`
}

// Plan is the full set of tasks derived from a backlog.
type Plan struct {
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// TotalTasks returns the number of tasks in the plan.
func (p Plan) TotalTasks() int {
	return len(p.Tasks)
}

// ByRole returns the plan's tasks assigned to the given role, preserving
// plan order.
func (p Plan) ByRole(role Role) []Task {
	var tasks []Task
	for _, task := range p.Tasks {
		if task.Assignee == role {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// TaskIDs returns every task identifier in plan order.
func (p Plan) TaskIDs() []string {
	if len(p.Tasks) == 0 {
		return nil
	}
	ids := make([]string, len(p.Tasks))
	for i, task := range p.Tasks {
		ids[i] = task.ID
	}
	return ids
}

// BuildPlan expands a backlog into tasks. Every item fans out into exactly
// three tasks, one per role: backend work, frontend work, and tests. The
// derivation is pure, so the same backlog always yields the same plan.
func BuildPlan(items []backlog.Item) Plan {
	if len(items) == 0 {
		return Plan{}
	}
	tasks := make([]Task, 0, len(items)*3)
	for _, item := range items {
		tasks = append(tasks,
			Task{ID: item.ID + "-backend", Title: fmt.Sprintf("Backend: %s", item.Title), Assignee: RoleBackend},
			Task{ID: item.ID + "-frontend", Title: fmt.Sprintf("Frontend: %s", item.Title), Assignee: RoleFrontend},
			Task{ID: item.ID + "-tests", Title: fmt.Sprintf("Tests: %s", item.Title), Assignee: RoleQA},
		)
	}
	return Plan{Tasks: tasks}
}
