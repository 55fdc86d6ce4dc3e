// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Pingid/tasks/internal/ctxlog"
	"github.com/Pingid/tasks/internal/signalbroker"
	"github.com/hashicorp/go-multierror"
)

// DefaultKillTimeout is how long a killed process has to be reaped.
const DefaultKillTimeout = 2 * time.Second

var _ signalbroker.Target = (*processTable)(nil)

// processTable tracks the processes of a run. It is the shutdown target of
// the signal coordinator.
type processTable struct {
	mu       sync.Mutex
	procs    []*Process
	stopping bool
	sealed   bool
	live     int

	done        chan struct{}
	doneOnce    sync.Once
	killTimeout time.Duration
	onFinish    func(*Process, *Outcome)
}

func newProcessTable(killTimeout time.Duration, onFinish func(*Process, *Outcome)) *processTable {
	if killTimeout <= 0 {
		killTimeout = DefaultKillTimeout
	}

	return &processTable{
		done:        make(chan struct{}),
		killTimeout: killTimeout,
		onFinish:    onFinish,
	}
}

// launch runs start and registers the process under the table lock.
// Once shutdown began no new process is started.
func (t *processTable) launch(start func() (*Process, error)) (*Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopping {
		return nil, ErrRunInterrupted
	}

	p, err := start()
	if err != nil {
		return nil, err
	}

	t.procs = append(t.procs, p)
	t.live++

	return p, nil
}

// seal marks that no more processes will be launched.
func (t *processTable) seal() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sealed = true
	t.checkDone()
}

// checkDone must be called with t.mu held.
func (t *processTable) checkDone() {
	if t.sealed && t.live == 0 {
		t.doneOnce.Do(func() { close(t.done) })
	}
}

// finish records the outcome of p. It reports false if p already had one.
func (t *processTable) finish(p *Process, o *Outcome) bool {
	if !p.settle(o) {
		return false
	}

	if t.onFinish != nil {
		t.onFinish(p, o)
	}

	t.mu.Lock()
	t.live--
	t.checkDone()
	t.mu.Unlock()

	return true
}

// stop blocks further launches and returns the processes still running.
func (t *processTable) stop() []*Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopping = true

	running := make([]*Process, 0, len(t.procs))

	for _, p := range t.procs {
		if p.State() == ProcessRunning {
			running = append(running, p)
		}
	}

	return running
}

// Terminate implements signalbroker.Target.
func (t *processTable) Terminate(ctx context.Context, sig os.Signal) error {
	var merr *multierror.Error

	procs := t.stop()
	ctxlog.Debug(ctx, "forwarding signal", "signal", sig.String(), "processes", len(procs))

	for _, p := range procs {
		if err := p.Signal(sig); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s (pid %d): %w", p.Spec.Label(), p.Pid(), err))
		}
	}

	return merr.ErrorOrNil()
}

// Kill implements signalbroker.Target. A process not reaped within the kill
// timeout is finalized as killed with ErrCouldNotKillProcess.
func (t *processTable) Kill(ctx context.Context) error {
	var merr *multierror.Error

	logger := ctxlog.Logger(ctx)
	procs := t.stop()

	for _, p := range procs {
		if err := p.Kill(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s (pid %d): %w", p.Spec.Label(), p.Pid(), err))
		}
	}

	deadline := time.NewTimer(t.killTimeout)
	defer deadline.Stop()

	expired := false

	for _, p := range procs {
		if !expired {
			select {
			case <-p.Done():
				continue
			case <-deadline.C:
				expired = true
			}
		}

		select {
		case <-p.Done():
			continue
		default:
		}

		logger.Error("could not confirm process was killed", "pid", p.Pid(), "timeout", t.killTimeout)

		if t.finish(p, p.unconfirmedKill()) {
			merr = multierror.Append(merr, fmt.Errorf("%s (pid %d): %w", p.Spec.Label(), p.Pid(), ErrCouldNotKillProcess))
		}

		p.closeOutputs()
	}

	return merr.ErrorOrNil()
}

// Done implements signalbroker.Target.
func (t *processTable) Done() <-chan struct{} {
	return t.done
}
