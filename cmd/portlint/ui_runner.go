package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"portlint/internal/analyzer"
	"portlint/internal/ui"
)

type analyzeOutcome struct {
	result *analyzer.Result
	err    error
}

// runWithUI runs analyze in the background while a progress view draws on
// out. analyze must report through the sink it is given.
func runWithUI(title string, files []string, out io.Writer, analyze func(analyzer.ProgressSink) (*analyzer.Result, error)) (*analyzer.Result, error) {
	events := make(chan analyzer.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		res, err := analyze(analyzer.ChannelSink{Ch: events})
		outcomeCh <- analyzeOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out))
	_, uiErr := program.Run()

	// the view may quit early (ctrl+c); keep the workers from blocking
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
