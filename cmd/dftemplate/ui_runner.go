package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dftemplate/internal/ui"
	"dftemplate/internal/workspace"
)

type analyzeOutcome struct {
	ws  *workspace.Workspace
	err error
}

// runAnalyzeWithUI runs the analysis while a progress view renders its
// events. Quitting the view cancels the analysis.
func runAnalyzeWithUI(ctx context.Context, title string, paths []string, opts workspace.Options) (*workspace.Workspace, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan workspace.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		opts.Progress = workspace.ChannelSink{Ch: events}
		ws, err := workspace.Analyze(ctx, paths, opts)
		outcomeCh <- analyzeOutcome{ws: ws, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, workspace.DisplayPaths(paths, opts.BaseDir), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()

	// вид мог закрыться раньше: отменяем анализ и вычитываем события, чтобы
	// горутина не заблокировалась на полном канале
	cancel()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.ws, uiErr
	}
	return outcome.ws, outcome.err
}
