// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"time"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/hashicorp/go-multierror"
)

const (
	// SpawnFailedExitCode is the effective exit code of a command that could not be started.
	SpawnFailedExitCode = 127
	// InterruptedExitCode is the overall exit code of an interrupted run.
	InterruptedExitCode = 130
	// signalExitBase is added to the signal number of a signalled child.
	signalExitBase = 128
	// sigkillNumber is used when a kill could not be confirmed.
	sigkillNumber = 9
)

// Status is the terminal state of a command.
type Status int

const (
	// StatusSucceeded means the command exited with code zero.
	StatusSucceeded Status = iota
	// StatusFailed means the command exited with a non-zero code.
	StatusFailed
	// StatusKilled means the command was terminated by a signal.
	StatusKilled
	// StatusSpawnFailed means the command could not be started.
	StatusSpawnFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusKilled:
		return "killed"
	case StatusSpawnFailed:
		return "spawn-failed"
	default:
		return "unknown"
	}
}

// Outcome is how one command ended.
type Outcome struct {
	Spec         cmdspec.Spec
	Index        int
	Pid          int
	ExitCode     *int   // Set when the process exited on its own
	Signaled     bool   // The process was terminated by a signal
	Signal       string // Name of that signal
	SignalNumber int
	Status       Status
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
	LastLine     string // Last line of output, either stream
}

// Code returns the effective exit code of the outcome.
func (o *Outcome) Code() int {
	switch {
	case o.Status == StatusSpawnFailed:
		return SpawnFailedExitCode
	case o.ExitCode != nil:
		return *o.ExitCode
	case o.Signaled && o.SignalNumber > 0:
		return signalExitBase + o.SignalNumber
	case o.Status == StatusKilled:
		return signalExitBase + sigkillNumber
	case o.Status == StatusFailed:
		return 1
	default:
		return 0
	}
}

// Success reports whether the command exited with code zero.
func (o *Outcome) Success() bool {
	return o.Status == StatusSucceeded
}

func spawnFailure(index int, spec cmdspec.Spec, err error) *Outcome {
	return &Outcome{
		Spec:      spec,
		Index:     index,
		Status:    StatusSpawnFailed,
		Err:       err,
		StartedAt: time.Now(),
	}
}

// OverallCode computes the exit code for a whole run: 130 if interrupted,
// otherwise the first non-zero effective code in command order, otherwise 0.
func OverallCode(outcomes []*Outcome, interrupted bool) int {
	if interrupted {
		return InterruptedExitCode
	}

	for _, o := range outcomes {
		if o == nil {
			continue
		}

		if c := o.Code(); c != 0 {
			return c
		}
	}

	return 0
}

// RunResult is the outcome of a whole run.
type RunResult struct {
	RunID       string
	Outcomes    []*Outcome // In command-line order
	OverallCode int
	Interrupted bool
	Signal      string // First termination signal received, if any
	StartedAt   time.Time
	Duration    time.Duration
}

// HasError reports whether any command did not succeed.
func (r *RunResult) HasError() bool {
	for _, o := range r.Outcomes {
		if !o.Success() {
			return true
		}
	}

	return false
}

// Failed returns the outcomes that did not succeed, in command order.
func (r *RunResult) Failed() []*Outcome {
	var failed []*Outcome

	for _, o := range r.Outcomes {
		if !o.Success() {
			failed = append(failed, o)
		}
	}

	return failed
}

// Err returns every per-command error, or nil.
func (r *RunResult) Err() error {
	var merr *multierror.Error

	for _, o := range r.Outcomes {
		if o.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", o.Spec.Label(), o.Err))
		}
	}

	return merr.ErrorOrNil()
}

// WriteWithOptions writes the summary to w with the specified options.
func (r *RunResult) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteSummary(w, r, options)
}
