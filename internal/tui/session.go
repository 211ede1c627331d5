// internal/tui/session.go
//
// Session owns the channels between a runner goroutine, the App, and
// the caller that started the run. The UI and the caller each receive
// their own copy of the final result on dedicated channels: a pending
// listen command that outlives the program (bubbletea cannot interrupt
// a command blocked on a channel) only ever drains the UI's copy, so
// the caller's receive can never be starved by it.

package tui

import (
	"context"

	"swarmcycle/internal/iteration"
)

const progressBuffer = 16

// Session connects one iteration run to the terminal UI.
type Session struct {
	progress chan iteration.Progress
	uiResult chan RunResult
	result   chan RunResult
	cancel   context.CancelFunc
}

// NewSession prepares the channels for a run. cancel is invoked when
// the user quits the UI before the run finishes.
func NewSession(cancel context.CancelFunc) *Session {
	return &Session{
		progress: make(chan iteration.Progress, progressBuffer),
		uiResult: make(chan RunResult, 1),
		result:   make(chan RunResult, 1),
		cancel:   cancel,
	}
}

// Publish returns a progress callback for the runner. Once ctx is done
// nothing drains the channel anymore, so notifications are dropped
// instead of blocking the runner.
func (s *Session) Publish(ctx context.Context) func(iteration.Progress) {
	return func(p iteration.Progress) {
		select {
		case s.progress <- p:
		case <-ctx.Done():
		}
	}
}

// Finish delivers the runner's final result to both consumers and
// closes the progress stream. Must be called exactly once.
func (s *Session) Finish(res RunResult) {
	s.uiResult <- res
	s.result <- res
	close(s.progress)
}

// App builds the bubbletea model attached to this session.
func (s *Session) App() *App {
	return NewApp(s.progress, s.uiResult, s.cancel)
}

// Wait blocks until the runner has finished and returns the caller's
// copy of the result.
func (s *Session) Wait() RunResult {
	return <-s.result
}
