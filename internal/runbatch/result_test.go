// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"testing"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func exited(index, code int) *Outcome {
	o := &Outcome{Index: index, ExitCode: intPtr(code), Status: StatusSucceeded}
	if code != 0 {
		o.Status = StatusFailed
	}

	return o
}

func TestOutcome_Code(t *testing.T) {
	tests := []struct {
		name     string
		outcome  *Outcome
		expected int
	}{
		{name: "success", outcome: exited(0, 0), expected: 0},
		{name: "non-zero exit", outcome: exited(0, 3), expected: 3},
		{
			name:     "signalled",
			outcome:  &Outcome{Signaled: true, Signal: "interrupt", SignalNumber: 2, Status: StatusKilled},
			expected: 130,
		},
		{
			name:     "unconfirmed kill",
			outcome:  &Outcome{Status: StatusKilled, Err: ErrCouldNotKillProcess},
			expected: 137,
		},
		{
			name:     "spawn failure",
			outcome:  spawnFailure(0, cmdspec.Spec{CommandLine: "x"}, ErrCouldNotStartProcess),
			expected: SpawnFailedExitCode,
		},
		{
			name:     "wait failure",
			outcome:  &Outcome{Status: StatusFailed, Err: ErrWaitFailed},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.outcome.Code())
		})
	}
}

func TestOverallCode(t *testing.T) {
	tests := []struct {
		name        string
		outcomes    []*Outcome
		interrupted bool
		expected    int
	}{
		{
			name:     "all zero",
			outcomes: []*Outcome{exited(0, 0), exited(1, 0), exited(2, 0)},
			expected: 0,
		},
		{
			name:     "first non-zero in command order",
			outcomes: []*Outcome{exited(0, 0), exited(1, 3), exited(2, 5)},
			expected: 3,
		},
		{
			name: "spawn failure before exit code",
			outcomes: []*Outcome{
				spawnFailure(0, cmdspec.Spec{CommandLine: "x"}, ErrCouldNotStartProcess),
				exited(1, 1),
			},
			expected: 127,
		},
		{
			name:        "interrupted wins over success",
			outcomes:    []*Outcome{exited(0, 0)},
			interrupted: true,
			expected:    InterruptedExitCode,
		},
		{
			name:        "interrupted wins over failures",
			outcomes:    []*Outcome{exited(0, 2)},
			interrupted: true,
			expected:    InterruptedExitCode,
		},
		{
			name:     "missing outcomes are skipped",
			outcomes: []*Outcome{nil, exited(1, 4)},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OverallCode(tt.outcomes, tt.interrupted))
		})
	}
}

func TestRunResult_Err(t *testing.T) {
	boom := errors.New("boom")

	res := &RunResult{
		Outcomes: []*Outcome{
			{Spec: cmdspec.Spec{Prefix: "web", CommandLine: "x"}, Status: StatusSucceeded},
			{Spec: cmdspec.Spec{Prefix: "api", CommandLine: "y"}, Status: StatusFailed, Err: boom},
			{Spec: cmdspec.Spec{CommandLine: "z"}, Status: StatusSpawnFailed, Err: ErrCouldNotStartProcess},
		},
	}

	err := res.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrCouldNotStartProcess)
	assert.Contains(t, err.Error(), "api: boom")
	assert.Contains(t, err.Error(), "z: could not start process")

	assert.True(t, res.HasError())
	assert.Len(t, res.Failed(), 2)
}

func TestRunResult_ErrNil(t *testing.T) {
	res := &RunResult{Outcomes: []*Outcome{exited(0, 0)}}

	require.NoError(t, res.Err())
	assert.False(t, res.HasError())
	assert.Empty(t, res.Failed())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "succeeded", StatusSucceeded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "killed", StatusKilled.String())
	assert.Equal(t, "spawn-failed", StatusSpawnFailed.String())
	assert.Equal(t, "unknown", Status(99).String())
}
