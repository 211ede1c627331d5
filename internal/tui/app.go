// internal/tui/app.go
//
// Terminal UI for watching an iteration run. It uses bubbletea, which
// follows The Elm Architecture: the App model holds all state, Update
// reacts to messages, and View renders the current state to a string.
//
// The runner executes on its own goroutine and publishes progress over a
// channel; the App drains that channel one message per tea.Cmd.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"swarmcycle/internal/iteration"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	phaseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
)

const maxVisibleMessages = 8

// RunResult carries the runner's final state back into the UI.
type RunResult struct {
	State iteration.State
	Err   error
}

type progressMsg iteration.Progress

type runDoneMsg RunResult

// App is the bubbletea model for a single iteration run.
type App struct {
	spinner  spinner.Model
	progress <-chan iteration.Progress
	result   <-chan RunResult
	cancel   context.CancelFunc

	phase    iteration.Phase
	tasks    []iteration.Task
	active   string
	done     map[string]bool
	messages []string

	finished bool
	final    RunResult
	width    int
}

// NewApp wires the UI to a running iteration. The progress channel must
// be closed by the publisher once the result is available, and cancel is
// invoked when the user quits early.
func NewApp(progress <-chan iteration.Progress, result <-chan RunResult, cancel context.CancelFunc) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = phaseStyle
	return &App{
		spinner:  sp,
		progress: progress,
		result:   result,
		cancel:   cancel,
		phase:    iteration.PhasePlanning,
		done:     map[string]bool{},
	}
}

// Init starts the spinner and the progress listener.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.listen())
}

// listen blocks for the next progress notification. Once the channel
// closes the runner is done and the final result is waiting.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-a.progress
		if !ok {
			return runDoneMsg(<-a.result)
		}
		return progressMsg(p)
	}
}

// Update reacts to UI and runner messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !a.finished && a.cancel != nil {
				a.cancel()
			}
			return a, tea.Quit
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case progressMsg:
		a.apply(iteration.Progress(msg))
		return a, a.listen()

	case runDoneMsg:
		a.finished = true
		a.final = RunResult(msg)
		if a.final.Err == nil {
			a.phase = a.final.State.Phase
		}
		return a, nil
	}
	return a, nil
}

func (a *App) apply(p iteration.Progress) {
	switch p.Kind {
	case iteration.ProgressPhase:
		a.phase = p.Phase
	case iteration.ProgressPlanReady:
		a.tasks = p.Tasks
	case iteration.ProgressTaskStarted:
		a.active = p.Task.ID
	case iteration.ProgressTaskCompleted:
		a.done[p.Task.ID] = true
		if a.active == p.Task.ID {
			a.active = ""
		}
	case iteration.ProgressMessage:
		a.messages = append(a.messages, p.Message)
		if len(a.messages) > maxVisibleMessages {
			a.messages = a.messages[len(a.messages)-maxVisibleMessages:]
		}
	}
}

// Result returns the runner's final state once it has been observed.
func (a *App) Result() (RunResult, bool) {
	return a.final, a.finished
}

// View renders the phase banner, task checklist, and recent messages.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("swarmcycle · iteration run"))
	b.WriteString("\n\n")

	if a.finished {
		if a.final.Err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Run stopped: %v", a.final.Err)))
		} else {
			b.WriteString(completeStyle.Render(fmt.Sprintf(
				"Iteration complete · %d/%d tasks done",
				len(a.final.State.CompletedTasks), a.final.State.Plan.TotalTasks(),
			)))
		}
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
		b.WriteString(phaseStyle.Render(a.phase.FriendlyName()))
	}
	b.WriteString("\n\n")

	for _, task := range a.tasks {
		switch {
		case a.done[task.ID]:
			b.WriteString(doneStyle.Render("  ✓ " + task.Title))
		case task.ID == a.active:
			b.WriteString(activeStyle.Render("  » " + task.Title))
		default:
			b.WriteString(pendingStyle.Render("  · " + task.Title))
		}
		b.WriteString("\n")
	}
	if len(a.tasks) > 0 {
		b.WriteString("\n")
	}

	for _, message := range a.messages {
		b.WriteString(messageStyle.Render("  " + message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.finished {
		b.WriteString(helpStyle.Render("press q to exit"))
	} else {
		b.WriteString(helpStyle.Render("press q to stop the run"))
	}
	b.WriteString("\n")
	return b.String()
}
