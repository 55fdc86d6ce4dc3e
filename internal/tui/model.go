// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strconv"
	"sync"
	"time"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/Pingid/tasks/internal/color"
	"github.com/Pingid/tasks/internal/progress"
	"github.com/Pingid/tasks/internal/runbatch"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// CommandStatus represents the current state of a command in the TUI.
type CommandStatus int

const (
	StatusPending CommandStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusKilled
)

// String returns a string representation of the command status.
func (s CommandStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// CommandRow is the display state of one command.
type CommandRow struct {
	Index      int
	Prefix     string
	Command    string
	Status     CommandStatus
	Pid        int
	ExitCode   int
	StartTime  *time.Time
	EndTime    *time.Time
	LastOutput string
	ErrorMsg   string
	mutex      sync.RWMutex
}

// RowInfo is a snapshot of a CommandRow.
type RowInfo struct {
	Index      int
	Prefix     string
	Command    string
	Status     CommandStatus
	Pid        int
	ExitCode   int
	StartTime  *time.Time
	EndTime    *time.Time
	LastOutput string
	ErrorMsg   string
}

// NewCommandRow creates a pending row for spec.
func NewCommandRow(index int, spec cmdspec.Spec) *CommandRow {
	return &CommandRow{
		Index:   index,
		Prefix:  spec.Prefix,
		Command: spec.CommandLine,
		Status:  StatusPending,
	}
}

// UpdateStatus safely updates the command status.
func (cr *CommandRow) UpdateStatus(status CommandStatus) {
	cr.mutex.Lock()
	defer cr.mutex.Unlock()

	cr.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if cr.StartTime == nil {
			cr.StartTime = &now
		}
	case StatusSuccess, StatusFailed, StatusKilled:
		if cr.StartTime == nil {
			cr.StartTime = &now
		}

		if cr.EndTime == nil {
			cr.EndTime = &now
		}
	}
}

// UpdateOutput safely updates the last output line. Blank lines are ignored.
func (cr *CommandRow) UpdateOutput(line string) {
	if line == "" {
		return
	}

	cr.mutex.Lock()
	defer cr.mutex.Unlock()

	cr.LastOutput = line
}

// UpdateError safely updates the error message.
func (cr *CommandRow) UpdateError(err string) {
	cr.mutex.Lock()
	defer cr.mutex.Unlock()

	cr.ErrorMsg = err
}

func (cr *CommandRow) setPid(pid int) {
	cr.mutex.Lock()
	defer cr.mutex.Unlock()

	cr.Pid = pid
}

func (cr *CommandRow) setExitCode(code int) {
	cr.mutex.Lock()
	defer cr.mutex.Unlock()

	cr.ExitCode = code
}

// GetDisplayInfo safely retrieves display information.
func (cr *CommandRow) GetDisplayInfo() RowInfo {
	cr.mutex.RLock()
	defer cr.mutex.RUnlock()

	return RowInfo{
		Index:      cr.Index,
		Prefix:     cr.Prefix,
		Command:    cr.Command,
		Status:     cr.Status,
		Pid:        cr.Pid,
		ExitCode:   cr.ExitCode,
		StartTime:  cr.StartTime,
		EndTime:    cr.EndTime,
		LastOutput: cr.LastOutput,
		ErrorMsg:   cr.ErrorMsg,
	}
}

// Model represents the TUI application state.
type Model struct {
	runID     string
	rows      []*CommandRow
	interrupt func()
	width     int
	height    int
	quitting  bool
	completed bool
	result    *runbatch.RunResult
	runErr    error
	shutdown  string // shutdown state reported by the run
	stopping  int    // number of interrupt requests made from the keyboard
	spinner   spinner.Model
	mutex     sync.RWMutex

	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title    lipgloss.Style
	Pending  lipgloss.Style
	Running  lipgloss.Style
	Success  lipgloss.Style
	Failed   lipgloss.Style
	Killed   lipgloss.Style
	Output   lipgloss.Style
	Error    lipgloss.Style
	Shutdown lipgloss.Style
	Help     lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Killed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Shutdown: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true).
			MarginTop(1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// prefixStyle colours a prefix the same way the line output does.
func prefixStyle(index int) lipgloss.Style {
	ansi := int(color.ForIndex(index) - color.FgBlack)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(ansi)))
}

// NewModel creates a new TUI model with one pending row per spec.
// interrupt is called when the user asks to stop the run.
func NewModel(runID string, specs []cmdspec.Spec, interrupt func()) *Model {
	rows := make([]*CommandRow, len(specs))
	for i, spec := range specs {
		rows[i] = NewCommandRow(i, spec)
	}

	styles := NewStyles()

	return &Model{
		runID:     runID,
		rows:      rows,
		interrupt: interrupt,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Running),
		),
		styles: styles,
	}
}

// Rows returns the command rows in command order.
func (m *Model) Rows() []*CommandRow {
	return m.rows
}

func (m *Model) row(index int) *CommandRow {
	if index < 0 || index >= len(m.rows) {
		return nil
	}

	return m.rows[index]
}

// processProgressEvent handles incoming progress events.
func (m *Model) processProgressEvent(event progress.Event) {
	if event.Type == progress.EventShutdown {
		m.mutex.Lock()
		m.shutdown = event.Data.State
		m.mutex.Unlock()

		return
	}

	row := m.row(event.Index)
	if row == nil {
		return
	}

	switch event.Type {
	case progress.EventStarted:
		row.setPid(event.Data.Pid)
		row.UpdateStatus(StatusRunning)

	case progress.EventOutput:
		row.UpdateOutput(event.Data.OutputLine)

	case progress.EventCompleted:
		row.setExitCode(event.Data.ExitCode)
		row.UpdateStatus(StatusSuccess)

	case progress.EventFailed:
		row.setExitCode(event.Data.ExitCode)

		status := StatusFailed
		if event.Data.Status == runbatch.StatusKilled.String() {
			status = StatusKilled
		}

		row.UpdateStatus(status)

		if event.Data.Error != nil {
			row.UpdateError(event.Data.Error.Error())
		}
	}
}

// applyResult brings every row in line with the final outcomes, in case
// progress events were dropped.
func (m *Model) applyResult(res *runbatch.RunResult) {
	if res == nil {
		return
	}

	for _, o := range res.Outcomes {
		row := m.row(o.Index)
		if row == nil {
			continue
		}

		switch o.Status {
		case runbatch.StatusSucceeded:
			row.UpdateStatus(StatusSuccess)
		case runbatch.StatusKilled:
			row.UpdateStatus(StatusKilled)
		default:
			row.UpdateStatus(StatusFailed)
		}

		row.setExitCode(o.Code())
		row.UpdateOutput(o.LastLine)

		if o.Err != nil {
			row.UpdateError(o.Err.Error())
		}
	}
}
