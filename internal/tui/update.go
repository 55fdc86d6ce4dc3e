// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Pingid/tasks/internal/progress"
	"github.com/Pingid/tasks/internal/runbatch"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	commandDurationRounding = 100 * time.Millisecond
	minCommandWidth         = 16
	defaultWidth            = 100
	ellipsis                = "…"
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// RunCompletedMsg indicates that every command has finished.
type RunCompletedMsg struct {
	Result *runbatch.RunResult
	Err    error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.mutex.Lock()
		m.spinner, cmd = m.spinner.Update(msg)
		m.mutex.Unlock()

		return m, cmd

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case RunCompletedMsg:
		m.applyResult(msg.Result)

		m.mutex.Lock()
		m.completed = true
		m.result = msg.Result
		m.runErr = msg.Err
		m.mutex.Unlock()

		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c":
		if m.completed {
			m.quitting = true
			return m, tea.Quit
		}

		m.stopping++

		if m.interrupt != nil {
			m.interrupt()
		}
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	title := "tasks"
	if m.runID != "" {
		title += " · run " + m.runID
	}

	view.WriteString(m.styles.Title.Render(title))
	view.WriteString("\n")

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	for _, row := range m.rows {
		m.renderRow(&view, row.GetDisplayInfo(), width)
	}

	switch {
	case m.completed:
		view.WriteString("\n")

		if m.runErr != nil || (m.result != nil && m.result.HasError()) {
			view.WriteString(m.styles.Failed.Render(fmt.Sprintf("Completed with errors, exit code %d", m.exitCode())))
		} else {
			view.WriteString(m.styles.Success.Render("Completed successfully"))
		}

		view.WriteString("\n")

	case m.shutdown != "" || m.stopping > 0:
		state := m.shutdown
		if state == "" {
			state = "stopping"
		}

		view.WriteString(m.styles.Shutdown.Render("Shutting down: " + state))
		view.WriteString("\n")
		view.WriteString(m.styles.Help.Render("ctrl+c again to kill immediately"))
		view.WriteString("\n")

	default:
		view.WriteString(m.styles.Help.Render("ctrl+c or q to stop all commands"))
		view.WriteString("\n")
	}

	return view.String()
}

func (m *Model) exitCode() int {
	if m.result == nil {
		return 1
	}

	return m.result.OverallCode
}

// renderRow renders one command with its last output line.
func (m *Model) renderRow(b *strings.Builder, info RowInfo, width int) {
	var (
		icon  string
		style lipgloss.Style
	)

	switch info.Status {
	case StatusPending:
		icon = "·"
		style = m.styles.Pending
	case StatusRunning:
		icon = m.spinner.View()
		style = m.styles.Running
	case StatusSuccess:
		icon = "✓"
		style = m.styles.Success
	case StatusFailed:
		icon = "✗"
		style = m.styles.Failed
	case StatusKilled:
		icon = "⚡"
		style = m.styles.Killed
	default:
		icon = "?"
		style = m.styles.Pending
	}

	left := ""
	if info.Prefix != "" {
		left = "[" + prefixStyle(info.Index).Render(info.Prefix) + "] "
	}

	leftWidth := width / 2 //nolint:mnd
	if leftWidth < minCommandWidth {
		leftWidth = minCommandWidth
	}

	command := truncate(info.Command, leftWidth-lipgloss.Width(left))
	left = fmt.Sprintf("%s %s%s", style.Render(icon), left, command)

	if info.StartTime != nil {
		elapsed := time.Since(*info.StartTime)
		if info.EndTime != nil {
			elapsed = info.EndTime.Sub(*info.StartTime)
		}

		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(commandDurationRounding)))
	}

	var right string

	rightWidth := width - lipgloss.Width(left) - 2 //nolint:mnd

	switch {
	case info.ErrorMsg != "" && (info.Status == StatusFailed || info.Status == StatusKilled):
		right = m.styles.Error.Render(truncate("Error: "+info.ErrorMsg, rightWidth))
	case info.LastOutput != "":
		right = m.styles.Output.Render(truncate(info.LastOutput, rightWidth))
	}

	b.WriteString(left)

	if right != "" {
		b.WriteString("  ")
		b.WriteString(right)
	}

	b.WriteString("\n")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(s) <= width {
		return s
	}

	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}

	return string(r) + ellipsis
}
