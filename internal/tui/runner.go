// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"os"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/Pingid/tasks/internal/progress"
	"github.com/Pingid/tasks/internal/runbatch"
	"github.com/Pingid/tasks/internal/signalbroker"
	tea "github.com/charmbracelet/bubbletea"
)

const reporterBufferSize = 1024

// RunFunc performs the run. It must report progress to reporter and stop
// its commands when source delivers a signal.
type RunFunc func(ctx context.Context, reporter progress.Reporter, source signalbroker.Source) (*runbatch.RunResult, error)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *progress.ChannelReporter
	source   signalbroker.ChannelSource
}

// NewRunner creates a new TUI runner for specs. The program does not install
// its own signal handler; ctrl+c is turned into an interrupt for the run.
func NewRunner(ctx context.Context, runID string, specs []cmdspec.Spec, opts ...tea.ProgramOption) *Runner {
	source := make(signalbroker.ChannelSource, 2) //nolint:mnd

	model := NewModel(runID, specs, func() {
		select {
		case source <- os.Interrupt:
		default:
		}
	})

	opts = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	}, opts...)

	return &Runner{
		model:    model,
		program:  tea.NewProgram(model, opts...),
		reporter: progress.NewChannelReporter(ctx, reporterBufferSize),
		source:   source,
	}
}

// Model returns the model driven by the runner.
func (r *Runner) Model() *Model {
	return r.model
}

// Run starts the TUI and performs run with progress reporting. It returns once
// the run is complete and the TUI has exited.
func (r *Runner) Run(ctx context.Context, run RunFunc, extra ...signalbroker.Source) (*runbatch.RunResult, error) {
	type outcome struct {
		res *runbatch.RunResult
		err error
	}

	r.reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		r.program.Send(ProgressEventMsg{Event: e})
	}))

	source := signalbroker.Merge(append([]signalbroker.Source{r.source}, extra...)...)
	defer source.Stop()

	resultChan := make(chan outcome, 1)

	go func() {
		res, err := run(ctx, r.reporter, source)
		resultChan <- outcome{res: res, err: err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		out    outcome
		tuiErr error
	)

	select {
	case out = <-resultChan:
		// deliver buffered events before the final state
		r.reporter.Close()
		r.program.Send(RunCompletedMsg{Result: out.res, Err: out.err})

		tuiErr = <-tuiDone

	case tuiErr = <-tuiDone:
		// The board failed; the run carries on without it.
		r.reporter.Close()

		out = <-resultChan
	}

	if errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	return out.res, errors.Join(out.err, tuiErr)
}
