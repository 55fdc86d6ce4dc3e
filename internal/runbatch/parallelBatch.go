// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/Pingid/tasks/internal/ctxlog"
	"github.com/Pingid/tasks/internal/linemux"
	"github.com/Pingid/tasks/internal/progress"
	"github.com/Pingid/tasks/internal/signalbroker"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultWaitDelay is how long output may keep flowing after a process exits.
const DefaultWaitDelay = 2 * time.Second

// ErrNoSink is returned when a batch has nowhere to write output.
var ErrNoSink = errors.New("no output sink configured")

// ParallelBatch runs a set of commands at the same time.
type ParallelBatch struct {
	Specs       []cmdspec.Spec
	Launcher    *Launcher           // Defaults to the platform shell
	Sink        linemux.Sink        // Receives every output line
	Source      signalbroker.Source // Termination requests, may be nil
	Reporter    progress.Reporter   // Defaults to a NullReporter
	GracePeriod time.Duration       // Defaults to signalbroker.DefaultGracePeriod
	WaitDelay   time.Duration       // Defaults to DefaultWaitDelay
	KillTimeout time.Duration       // Defaults to DefaultKillTimeout
	RunID       string              // Generated when empty
}

func (b *ParallelBatch) waitDelay() time.Duration {
	if b.WaitDelay <= 0 {
		return DefaultWaitDelay
	}

	return b.WaitDelay
}

func (b *ParallelBatch) gracePeriod() time.Duration {
	if b.GracePeriod <= 0 {
		return signalbroker.DefaultGracePeriod
	}

	return b.GracePeriod
}

// Run starts every command and blocks until all of them have an outcome and
// all of their output has been written.
//
// Per-command failures are reported in the RunResult. The returned error is
// only set for failures that make the run itself unreliable, such as an
// output sink that can no longer be written to.
func (b *ParallelBatch) Run(ctx context.Context) (*RunResult, error) {
	if len(b.Specs) == 0 {
		return nil, cmdspec.ErrNoCommands
	}

	if b.Sink == nil {
		return nil, ErrNoSink
	}

	runID := b.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx = ctxlog.With(ctx, "runId", runID)
	logger := ctxlog.Logger(ctx).With("runnableType", "ParallelBatch")

	reporter := b.Reporter
	if reporter == nil {
		reporter = progress.NewNullReporter()
	}

	launcher := Launcher{}
	if b.Launcher != nil {
		launcher = *b.Launcher
	}

	launcher.RunID = runID

	var (
		fatalMu sync.Mutex
		fatal   *multierror.Error
	)

	addFatal := func(err error) {
		fatalMu.Lock()
		defer fatalMu.Unlock()

		fatal = multierror.Append(fatal, err)
	}

	agg := NewAggregator(len(b.Specs))
	record := func(o *Outcome) {
		if err := agg.Record(o); err != nil {
			logger.Error("could not record outcome", "index", o.Index, "error", err)
			addFatal(err)
		}

		reportOutcome(reporter, o)
	}

	table := newProcessTable(b.KillTimeout, func(_ *Process, o *Outcome) { record(o) })

	coord := signalbroker.NewCoordinator(b.Source, table,
		signalbroker.WithGracePeriod(b.gracePeriod()),
		signalbroker.WithObserver(func(from, to signalbroker.State) {
			// commands that all finish on their own are not a shutdown
			if from == signalbroker.StateIdle && to == signalbroker.StateDone {
				return
			}

			reporter.Report(progress.Event{
				Index:     -1,
				Type:      progress.EventShutdown,
				Message:   to.String(),
				Timestamp: time.Now(),
				Data:      progress.EventData{State: to.String()},
			})
		}),
	)

	coordErr := make(chan error, 1)

	go func() {
		coordErr <- coord.Run(ctx)
	}()

	var (
		drains   errgroup.Group
		watchers sync.WaitGroup
		sinkOnce sync.Once
	)

	onSinkFailure := func(err error) {
		sinkOnce.Do(func() {
			logger.Error("output sink failed, killing all commands", "error", err)

			watchers.Add(1)

			go func() {
				defer watchers.Done()

				_ = table.Kill(ctx)
			}()
		})
	}

	startedAt := time.Now()
	procs := make([]*Process, len(b.Specs))

	logger.Debug("starting commands", "count", len(b.Specs))

	for i, spec := range b.Specs {
		p, err := table.launch(func() (*Process, error) {
			return launcher.Start(ctx, i, spec)
		})
		if err != nil {
			logger.Warn("could not start command", "index", i, "command", spec.String(), "error", err)
			record(spawnFailure(i, spec, err))

			continue
		}

		procs[i] = p

		reporter.Report(progress.Event{
			Index:     i,
			Prefix:    spec.Prefix,
			Command:   spec.CommandLine,
			Type:      progress.EventStarted,
			Message:   "started",
			Timestamp: time.Now(),
			Data:      progress.EventData{Pid: p.Pid()},
		})

		b.watch(p, table, reporter, &drains, &watchers, onSinkFailure)
	}

	table.seal()

	outcomes := agg.Wait()

	if err := drains.Wait(); err != nil {
		addFatal(err)
	}

	watchers.Wait()

	if err := <-coordErr; err != nil {
		logger.Warn("shutdown did not complete cleanly", "error", err)
	}

	for i, p := range procs {
		if p != nil && outcomes[i] != nil {
			outcomes[i].LastLine = p.LastLine()
		}
	}

	res := &RunResult{
		RunID:       runID,
		Outcomes:    outcomes,
		Interrupted: coord.Interrupted(),
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
	}

	if sig := coord.Signal(); sig != nil {
		res.Signal = sig.String()
	}

	res.OverallCode = OverallCode(outcomes, res.Interrupted)

	logger.Debug("run complete", "overallCode", res.OverallCode, "interrupted", res.Interrupted)

	return res, fatal.ErrorOrNil()
}

// watch drains the output of p and reaps it. Once p has an outcome its pipes
// get the wait delay to reach end of stream before they are closed.
func (b *ParallelBatch) watch(
	p *Process,
	table *processTable,
	reporter progress.Reporter,
	drains *errgroup.Group,
	watchers *sync.WaitGroup,
	onSinkFailure func(error),
) {
	var streams sync.WaitGroup

	drain := func(r *os.File, stream linemux.Stream) {
		streams.Add(1)

		drains.Go(func() error {
			defer streams.Done()
			defer r.Close() //nolint:errcheck

			tmpl := linemux.Line{Index: p.Index, Prefix: p.Spec.Prefix, Stream: stream}

			err := linemux.Drain(r, tmpl, b.Sink, func(l linemux.Line) {
				p.setLastLine(l.Text)
				reporter.Report(progress.Event{
					Index:     p.Index,
					Prefix:    p.Spec.Prefix,
					Command:   p.Spec.CommandLine,
					Type:      progress.EventOutput,
					Timestamp: time.Now(),
					Data: progress.EventData{
						OutputLine: l.Text,
						IsStderr:   l.Stream == linemux.Stderr,
					},
				})
			})
			if err == nil {
				return nil
			}

			if errors.Is(err, linemux.ErrSinkWrite) {
				onSinkFailure(err)
				_, _ = io.Copy(io.Discard, r)

				return err
			}

			p.logger.Warn("output stream failed", "stream", stream.String(), "error", err)
			_, _ = io.Copy(io.Discard, r)

			return nil
		})
	}

	drain(p.stdout, linemux.Stdout)
	drain(p.stderr, linemux.Stderr)

	drained := make(chan struct{})

	watchers.Add(2)

	go func() {
		defer watchers.Done()

		streams.Wait()
		close(drained)
	}()

	// An unkillable process may never be reaped; its outcome is then settled
	// by the process table and this goroutine is left behind.
	go func() {
		table.finish(p, p.wait())
	}()

	go func() {
		defer watchers.Done()

		<-p.Done()

		timer := time.NewTimer(b.waitDelay())
		defer timer.Stop()

		select {
		case <-drained:
		case <-timer.C:
			p.logger.Debug("output still open after exit, closing pipes", "waitDelay", b.waitDelay())
			p.closeOutputs()
			<-drained
		}
	}()
}

func reportOutcome(reporter progress.Reporter, o *Outcome) {
	ev := progress.Event{
		Index:     o.Index,
		Prefix:    o.Spec.Prefix,
		Command:   o.Spec.CommandLine,
		Type:      progress.EventCompleted,
		Message:   o.Status.String(),
		Timestamp: time.Now(),
		Data: progress.EventData{
			ExitCode: o.Code(),
			Status:   o.Status.String(),
			Error:    o.Err,
		},
	}

	if !o.Success() {
		ev.Type = progress.EventFailed
	}

	reporter.Report(ev)
}
