// cmd/swarmcycle/main.go
//
// Entry point for the swarmcycle CLI. It runs one iteration of the toy
// multi-agent workflow: plan the backlog, wait for (auto-)approval, then
// let the agents build. Progress is shown in a TUI by default, or as
// plain lines with --headless.
//
// Dashboard reporting and run history are best-effort: the run's outcome
// never depends on either.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"swarmcycle/internal/agent"
	"swarmcycle/internal/backlog"
	"swarmcycle/internal/config"
	"swarmcycle/internal/dashboard"
	"swarmcycle/internal/history"
	"swarmcycle/internal/iteration"
	"swarmcycle/internal/logbook"
	"swarmcycle/internal/tui"
)

func main() {
	var (
		backlogPath    = flag.String("backlog", "", "path to a YAML backlog file (default: built-in sample)")
		coordinatorURL = flag.String("coordinator", "", "dashboard coordinator URL (overrides config and COORDINATOR_URL)")
		headless       = flag.Bool("headless", false, "print plain progress lines instead of the TUI")
		withStub       = flag.Bool("with-stub", false, "serve a local stub dashboard for this run")
	)
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		fatalf("Error getting working directory: %v", err)
	}
	if err := config.InitStateDir(cwd); err != nil {
		fatalf("Error initializing %s directory: %v", config.StateDirName, err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		fatalf("Error loading configuration: %v", err)
	}
	if *coordinatorURL != "" {
		cfg.CoordinatorURL = *coordinatorURL
	}

	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		fatalf("Error opening logbook: %v", err)
	}
	defer lb.Close()

	items := backlog.Sample()
	path := *backlogPath
	if path == "" {
		path = cfg.BacklogPath
	}
	if path != "" {
		items, err = backlog.LoadFile(path)
		if err != nil {
			fatalf("Error loading backlog: %v", err)
		}
	}

	roster, err := agent.LoadRoster(cfg.TeamPath)
	if err != nil {
		fatalf("Error loading team roster: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *withStub {
		stub := dashboard.NewServer(dashboard.DefaultSettings(), dashboard.WithLogger(lb))
		if err := stub.Start(ctx); err != nil {
			fatalf("Error starting stub dashboard: %v", err)
		}
		defer func() { _ = stub.Shutdown(context.Background()) }()
		cfg.CoordinatorURL = stub.BaseURL()
		cfg.DashboardEnabled = true
	}

	var reporter agent.Reporter
	if cfg.DashboardEnabled {
		var clientOpts []dashboard.ClientOption
		if cfg.RequestTimeout > 0 {
			clientOpts = append(clientOpts, dashboard.WithTimeout(cfg.RequestTimeout))
		}
		reporter = dashboard.NewClient(cfg.CoordinatorURL, clientOpts...)
	}
	team := agent.NewTeam(roster, reporter, lb)

	state, runErr := runIteration(ctx, cfg, team, lb, items, *headless)

	recordHistory(cfg, lb, state)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Run stopped: %v\n", runErr)
		os.Exit(1)
	}
	printSummary(state)
}

func runIteration(ctx context.Context, cfg *config.Config, team *agent.Team, lb *logbook.Logbook, items []backlog.Item, headless bool) (iteration.State, error) {
	opts := []iteration.Option{
		iteration.WithCrew(team),
		iteration.WithLogbook(lb),
		iteration.WithApprovalWait(cfg.ApprovalWait),
		iteration.WithTaskWait(cfg.TaskWait),
	}
	if headless {
		runner := iteration.NewRunner(append(opts, iteration.WithProgress(printProgress))...)
		return runner.Run(ctx, items)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	session := tui.NewSession(cancel)
	runner := iteration.NewRunner(append(opts, iteration.WithProgress(session.Publish(runCtx)))...)
	go func() {
		state, err := runner.Run(runCtx, items)
		session.Finish(tui.RunResult{State: state, Err: err})
	}()

	program := tea.NewProgram(session.App(), tea.WithAltScreen())
	model, err := program.Run()
	if err != nil {
		cancel()
		return iteration.State{}, fmt.Errorf("tui: %w", err)
	}
	if finished, ok := model.(*tui.App); ok {
		if res, done := finished.Result(); done {
			return res.State, res.Err
		}
	}
	// The user quit before the runner finished; cancellation guarantees
	// the runner delivers the caller's copy of the result shortly.
	cancel()
	res := session.Wait()
	return res.State, res.Err
}

func printProgress(p iteration.Progress) {
	switch p.Kind {
	case iteration.ProgressPhase:
		fmt.Printf("phase: %s\n", p.Phase)
	case iteration.ProgressTaskStarted:
		fmt.Printf("  working: %s\n", p.Task.Title)
	case iteration.ProgressTaskCompleted:
		fmt.Printf("  done:    %s\n", p.Task.Title)
	case iteration.ProgressMessage:
		fmt.Printf("  %s\n", p.Message)
	}
}

func recordHistory(cfg *config.Config, lb *logbook.Logbook, state iteration.State) {
	if state.RunID == "" {
		return
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		lb.Warn("run history unavailable: %v", err)
		return
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		lb.Warn("run history migration failed: %v", err)
		return
	}
	if err := store.RecordRun(ctx, state); err != nil {
		lb.Warn("run history write failed: %v", err)
	}
}

func printSummary(state iteration.State) {
	fmt.Printf("\nIteration %s: %s\n", state.RunID, state.Phase.FriendlyName())
	fmt.Printf("Completed tasks: %d\n", len(state.CompletedTasks))
	if len(state.Messages) > 0 {
		fmt.Println("\nIteration log:")
		for _, message := range state.Messages {
			fmt.Printf("  - %s\n", message)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
