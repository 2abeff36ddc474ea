package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"capsule/internal/driver"
	"capsule/internal/source"
	"capsule/internal/ui"
)

type dirOutcome struct {
	fs      *source.FileSet
	results []driver.DiagnoseDirResult
	err     error
}

// runDirWithUI runs DiagnoseDir while a progress model renders its phase
// events to out.
func runDirWithUI(ctx context.Context, out io.Writer, dir string, files []string, opts driver.DiagnoseDirOptions) (*source.FileSet, []driver.DiagnoseDirResult, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		forward := opts.PhaseObserver
		opts.PhaseObserver = func(ev driver.PhaseEvent) {
			if forward != nil {
				forward(ev)
			}
			events <- ev
		}
		fs, results, err := driver.DiagnoseDir(ctx, dir, &opts)
		outcomeCh <- dirOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("elaborating "+dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the workers from blocking on a dead UI
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
