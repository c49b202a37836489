package main

import (
	"bytes"
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ocahooks/internal/module"
	"ocahooks/internal/ui"
)

type runOutcome struct {
	result *module.Result
	err    error
}

// runWithUI runs the checks behind the bubbletea progress view. Warnings are
// held back until the view is gone.
func runWithUI(ctx context.Context, title string, runner module.Runner, paths []string) (*module.Result, error) {
	events := make(chan module.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	out := runner.Out
	var held bytes.Buffer
	if out != nil {
		runner.Out = &held
	}

	go func() {
		runner.Progress = module.ChannelSink{Ch: events}
		res, err := runner.Run(ctx, paths)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early, the runner must not block on a full channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if out != nil {
		_, _ = out.Write(held.Bytes())
	}
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
