// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/Pingid/tasks/internal/ctxlog"
)

// Environment variables set for every child.
const (
	EnvRunID  = "TASKS_RUN_ID"
	EnvIndex  = "TASKS_INDEX"
	EnvPrefix = "TASKS_PREFIX"
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrRunInterrupted is returned when a command is launched after termination began.
	ErrRunInterrupted = errors.New("run interrupted before command started")
	// ErrCouldNotKillProcess is returned when a killed process did not exit in time.
	ErrCouldNotKillProcess = errors.New("could not kill process after timeout")
	// ErrSignalReceived is recorded when a forwarded signal terminated the process.
	ErrSignalReceived = errors.New("signal received")
	// ErrProcessKilled is recorded when the process was forcefully killed.
	ErrProcessKilled = errors.New("process forcefully terminated")
	// ErrWaitFailed is recorded when the exit status of the process could not be read.
	ErrWaitFailed = errors.New("failed to wait for process")
)

// DefaultShell returns the interpreter and its arguments used to run command lines.
func DefaultShell() (string, []string) {
	return defaultShell()
}

// ShellArgs returns the arguments that make shell run a single command line.
func ShellArgs(shell string) []string {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))

	switch name {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// Launcher starts command lines through a shell.
type Launcher struct {
	Shell     string            // Interpreter, defaults to DefaultShell
	ShellArgs []string          // Arguments placed before the command line
	Cwd       string            // Working directory, defaults to ours
	Env       map[string]string // Added to the inherited environment
	RunID     string
}

func (l *Launcher) shell() (string, []string) {
	if l.Shell == "" {
		return DefaultShell()
	}

	if l.ShellArgs == nil {
		return l.Shell, ShellArgs(l.Shell)
	}

	return l.Shell, l.ShellArgs
}

// Start spawns spec as the command at position index. The returned Process is
// running and owns the read ends of its stdout and stderr pipes.
func (l *Launcher) Start(ctx context.Context, index int, spec cmdspec.Spec) (*Process, error) {
	logger := ctxlog.Logger(ctx).With(
		"runnableType", "OSCommand",
		"index", index,
		"prefix", spec.Prefix,
	)

	if err := spec.Validate(); err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	shell, shellArgs := l.shell()

	path, err := exec.LookPath(shell)
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	argv := slices.Concat([]string{shell}, shellArgs, []string{spec.CommandLine})

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}
	defer devNull.Close() //nolint:errcheck

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	logger.Debug("starting process", "shell", path, "args", argv[1:], "cwd", l.Cwd)

	ps, err := os.StartProcess(path, argv, &os.ProcAttr{
		Dir:   l.Cwd,
		Env:   mergeEnv(os.Environ(), l.childEnv(index, spec)),
		Files: []*os.File{devNull, wOut, wErr},
		Sys:   sysProcAttr(argv),
	})

	// The child holds its own copies of the write ends.
	_ = wOut.Close()
	_ = wErr.Close()

	if err != nil {
		_ = rOut.Close()
		_ = rErr.Close()

		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	logger = logger.With("pid", ps.Pid)
	logger.Debug("process started")

	return &Process{
		Spec:      spec,
		Index:     index,
		ps:        ps,
		stdout:    rOut,
		stderr:    rErr,
		startedAt: time.Now(),
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

func (l *Launcher) childEnv(index int, spec cmdspec.Spec) map[string]string {
	env := make(map[string]string, len(l.Env)+3)
	maps.Copy(env, l.Env)
	env[EnvRunID] = l.RunID
	env[EnvIndex] = strconv.Itoa(index)
	env[EnvPrefix] = spec.Prefix

	return env
}

// mergeEnv returns base with the keys of extra replaced or appended.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))

	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[k]; ok {
			continue
		}

		env = append(env, kv)
	}

	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, k+"="+extra[k])
	}

	return env
}

// ProcessState is the lifecycle state of a Process.
type ProcessState int32

const (
	// ProcessRunning means the process has not been reaped.
	ProcessRunning ProcessState = iota
	// ProcessExited means the process ended on its own or from a forwarded signal.
	ProcessExited
	// ProcessKilled means the process was force killed.
	ProcessKilled
)

// Process is a running command.
type Process struct {
	Spec  cmdspec.Spec
	Index int

	ps        *os.Process
	stdout    *os.File
	stderr    *os.File
	startedAt time.Time
	logger    *slog.Logger

	state     atomic.Int32
	signalled atomic.Bool
	killed    atomic.Bool
	lastLine  atomic.Value

	once    sync.Once
	done    chan struct{}
	outcome *Outcome
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.ps.Pid
}

// State returns the lifecycle state.
func (p *Process) State() ProcessState {
	return ProcessState(p.state.Load())
}

// Done is closed once the process has its outcome.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the outcome, or nil while the process is running.
func (p *Process) Outcome() *Outcome {
	select {
	case <-p.done:
		return p.outcome
	default:
		return nil
	}
}

// LastLine returns the last line the process wrote to either stream.
func (p *Process) LastLine() string {
	s, _ := p.lastLine.Load().(string)
	return s
}

func (p *Process) setLastLine(s string) {
	p.lastLine.Store(s)
}

// Signal forwards sig to the process and everything it started.
func (p *Process) Signal(sig os.Signal) error {
	if p.State() != ProcessRunning {
		return nil
	}

	p.signalled.Store(true)

	if err := signalGroup(p.ps, sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	p.logger.Debug("signal sent", "signal", sig.String())

	return nil
}

// Kill forcibly kills the process and everything it started.
func (p *Process) Kill() error {
	if p.State() != ProcessRunning {
		return nil
	}

	p.killed.Store(true)

	if err := killGroup(p.ps); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Error("process kill error", "error", err)
		return err
	}

	p.logger.Info("process killed")

	return nil
}

// settle stores the outcome. Only the first call has any effect.
func (p *Process) settle(o *Outcome) bool {
	settled := false

	p.once.Do(func() {
		state := ProcessExited
		if o.Status == StatusKilled && p.killed.Load() {
			state = ProcessKilled
		}

		p.state.Store(int32(state))
		p.outcome = o
		close(p.done)

		settled = true
	})

	return settled
}

func (p *Process) closeOutputs() {
	_ = p.stdout.Close()
	_ = p.stderr.Close()
}

func (p *Process) newOutcome() *Outcome {
	return &Outcome{
		Spec:      p.Spec,
		Index:     p.Index,
		Pid:       p.ps.Pid,
		StartedAt: p.startedAt,
		Duration:  time.Since(p.startedAt),
	}
}

// wait blocks until the process exits and classifies how it ended.
func (p *Process) wait() *Outcome {
	p.logger.Debug("waiting for process to finish")

	state, err := p.ps.Wait()
	o := p.newOutcome()

	if state == nil {
		o.Status = StatusFailed
		o.Err = errors.Join(ErrWaitFailed, err)

		return o
	}

	if sig, ok := exitSignal(state); ok {
		o.Signaled = true
		o.Signal = sig.String()
		o.SignalNumber = int(sig)
		o.Status = StatusKilled

		switch {
		case p.killed.Load():
			o.Err = ErrProcessKilled
		case p.signalled.Load():
			o.Err = ErrSignalReceived
		}

		p.logger.Debug("process terminated by signal", "signal", o.Signal)

		return o
	}

	code := state.ExitCode()
	o.ExitCode = &code

	switch {
	case code == 0:
		o.Status = StatusSucceeded
	case p.killed.Load():
		o.Status = StatusKilled
		o.Err = ErrProcessKilled
	default:
		o.Status = StatusFailed
	}

	p.logger.Debug("process finished", "exitCode", code)

	return o
}

// unconfirmedKill is the outcome of a process that outlived its kill.
func (p *Process) unconfirmedKill() *Outcome {
	o := p.newOutcome()
	o.Status = StatusKilled
	o.Err = ErrCouldNotKillProcess

	return o
}
