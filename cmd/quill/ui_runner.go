package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/driver"
	"quill/internal/ui"
)

type formatOutcome struct {
	results []driver.FormatResult
	err     error
}

// runFormatWithUI runs FormatPaths in the background and shows its progress
// until the run finishes or the user quits.
func runFormatWithUI(ctx context.Context, title string, files, paths []string, opts driver.FormatOptions) ([]driver.FormatResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan formatOutcome, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		runOpts := opts
		runOpts.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.FormatPaths(ctx, paths, runOpts)
		outcomeCh <- formatOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// A finished run has closed events already; otherwise the user quit
	// early, so stop the workers and drain what they still report.
	cancel()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
