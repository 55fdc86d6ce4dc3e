// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package runbatch

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func defaultShell() (string, []string) {
	return "bash", []string{"-c"}
}

// sysProcAttr puts the child in a new process group so a signal reaches the
// whole pipeline it starts.
func sysProcAttr(_ []string) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		s = unix.SIGTERM
	}

	err := unix.Kill(-p.Pid, s)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}

	return err
}

func killGroup(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func exitSignal(state *os.ProcessState) (syscall.Signal, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}

	return ws.Signal(), true
}
