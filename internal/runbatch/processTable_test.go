// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTable_EmptyIsDoneWhenSealed(t *testing.T) {
	table := newProcessTable(0, nil)

	select {
	case <-table.Done():
		t.Fatal("done before seal")
	default:
	}

	table.seal()

	select {
	case <-table.Done():
	default:
		t.Fatal("sealed empty table should be done")
	}
}

func TestProcessTable_LaunchAfterStopIsRefused(t *testing.T) {
	table := newProcessTable(0, nil)
	require.NoError(t, table.Terminate(testContext(), syscall.SIGINT))

	called := false

	_, err := table.launch(func() (*Process, error) {
		called = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrRunInterrupted)
	assert.False(t, called)
}

func TestProcessTable_LaunchErrorIsNotTracked(t *testing.T) {
	table := newProcessTable(0, nil)
	boom := errors.New("boom")

	_, err := table.launch(func() (*Process, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	table.seal()
	<-table.Done()
}

func TestProcessTable_FinishOnce(t *testing.T) {
	skipOnWindows(t)

	var finished []*Outcome

	table := newProcessTable(0, func(_ *Process, o *Outcome) { finished = append(finished, o) })

	p, err := table.launch(func() (*Process, error) {
		return shLauncher().Start(testContext(), 0, cmdspec.Spec{CommandLine: "true"})
	})
	require.NoError(t, err)
	table.seal()

	readAll(t, p)

	o := p.wait()
	assert.True(t, table.finish(p, o))
	assert.False(t, table.finish(p, p.unconfirmedKill()))

	<-table.Done()
	require.Len(t, finished, 1)
	assert.Same(t, o, finished[0])
}

func TestProcessTable_KillUnconfirmed(t *testing.T) {
	skipOnWindows(t)

	var finished []*Outcome

	table := newProcessTable(50*time.Millisecond, func(_ *Process, o *Outcome) { finished = append(finished, o) })

	p, err := table.launch(func() (*Process, error) {
		return shLauncher().Start(testContext(), 0, cmdspec.Spec{CommandLine: "sleep 30"})
	})
	require.NoError(t, err)
	table.seal()

	// Nothing reaps the process, so the kill is never confirmed.
	err = table.Kill(testContext())
	require.ErrorIs(t, err, ErrCouldNotKillProcess)

	<-table.Done()
	require.Len(t, finished, 1)
	assert.Equal(t, StatusKilled, finished[0].Status)
	assert.Equal(t, 137, finished[0].Code())
	require.ErrorIs(t, finished[0].Err, ErrCouldNotKillProcess)

	// the reaped status does not replace the recorded outcome
	assert.False(t, table.finish(p, p.wait()))
	assert.Same(t, finished[0], p.Outcome())
}

func TestProcessTable_TerminateForwards(t *testing.T) {
	skipOnWindows(t)

	table := newProcessTable(0, nil)

	p, err := table.launch(func() (*Process, error) {
		return shLauncher().Start(testContext(), 0, cmdspec.Spec{CommandLine: "sleep 30"})
	})
	require.NoError(t, err)
	table.seal()

	require.NoError(t, table.Terminate(testContext(), syscall.SIGTERM))

	readAll(t, p)
	o := p.wait()
	assert.Equal(t, StatusKilled, o.Status)
	require.ErrorIs(t, o.Err, ErrSignalReceived)

	table.finish(p, o)
	<-table.Done()
}
