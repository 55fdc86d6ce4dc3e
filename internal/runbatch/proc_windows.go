// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package runbatch

import (
	"os"
	"strings"
	"syscall"
)

func defaultShell() (string, []string) {
	return "cmd", []string{"/C"}
}

// sysProcAttr passes the command line to cmd.exe verbatim.
func sysProcAttr(argv []string) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CmdLine: strings.Join(argv, " ")}
}

// signalGroup kills the process. Windows has no way to deliver a console
// interrupt to one child.
func signalGroup(p *os.Process, _ os.Signal) error {
	return p.Kill()
}

func killGroup(p *os.Process) error {
	return p.Kill()
}

func exitSignal(_ *os.ProcessState) (syscall.Signal, bool) {
	return 0, false
}
