// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Pingid/tasks/internal/color"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// OutputOptions controls what is included in the summary.
type OutputOptions struct {
	Colour          bool // Whether to colour the status column and error lines
	ShowSuccess     bool // Whether to list commands that succeeded
	MaxCommandWidth int  // Longer command lines are truncated
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		Colour:          color.Enabled(),
		ShowSuccess:     true,
		MaxCommandWidth: 48,
	}
}

var summaryHeaders = []string{" ", "#", "PREFIX", "COMMAND", "STATUS", "CODE", "DURATION"}

const (
	statusColumn = 4
	glyphColumn  = 0
)

// WriteSummary writes a table of the outcomes of r, followed by any errors and
// the overall exit code.
func WriteSummary(w io.Writer, r *RunResult, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	re := lipgloss.NewRenderer(w)
	if !options.Colour {
		re.SetColorProfile(termenv.Ascii)
	}

	headerStyle := re.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)

	var (
		rows     [][]string
		statuses []Status
	)

	for _, o := range r.Outcomes {
		if o.Success() && !options.ShowSuccess {
			continue
		}

		prefix := o.Spec.Prefix
		if prefix == "" {
			prefix = "-"
		}

		rows = append(rows, []string{
			statusGlyph(o.Status),
			strconv.Itoa(o.Index),
			prefix,
			truncate(o.Spec.CommandLine, options.MaxCommandWidth),
			o.Status.String(),
			codeString(o),
			o.Duration.Round(time.Millisecond).String(),
		})
		statuses = append(statuses, o.Status)
	}

	if len(rows) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(re.NewStyle().Faint(true)).
			Headers(summaryHeaders...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}

				if (col == glyphColumn || col == statusColumn) && row >= 0 && row < len(statuses) {
					return cellStyle.Foreground(statusColour(statuses[row]))
				}

				return cellStyle
			})

		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err //nolint:wrapcheck
		}
	}

	for _, o := range r.Outcomes {
		if o.Err == nil {
			continue
		}

		if _, err := fmt.Fprintf(
			w,
			"  %s [%s] %s\n",
			paint(options.Colour, "➜ Error:", color.FgRed),
			o.Spec.Label(),
			o.Err.Error(),
		); err != nil {
			return err //nolint:wrapcheck
		}
	}

	summary := fmt.Sprintf("%d commands, %d failed, exit code %d", len(r.Outcomes), len(r.Failed()), r.OverallCode)
	if r.Interrupted {
		cause := "cancelled"
		if r.Signal != "" {
			cause = r.Signal
		}

		summary += fmt.Sprintf(" (interrupted: %s)", cause)
	}

	summaryColour := color.FgGreen
	if r.OverallCode != 0 {
		summaryColour = color.FgRed
	}

	_, err := fmt.Fprintln(w, paint(options.Colour, summary, color.Bold, summaryColour))

	return err //nolint:wrapcheck
}

func statusGlyph(s Status) string {
	switch s {
	case StatusSucceeded:
		return "✓"
	case StatusFailed, StatusSpawnFailed:
		return "✗"
	case StatusKilled:
		return "⚡"
	default:
		return "?"
	}
}

func statusColour(s Status) lipgloss.TerminalColor {
	switch s {
	case StatusSucceeded:
		return lipgloss.Color("2")
	case StatusFailed:
		return lipgloss.Color("1")
	case StatusKilled:
		return lipgloss.Color("3")
	case StatusSpawnFailed:
		return lipgloss.Color("5")
	default:
		return lipgloss.NoColor{}
	}
}

func codeString(o *Outcome) string {
	if o.Signaled {
		return fmt.Sprintf("%d (%s)", o.Code(), o.Signal)
	}

	return strconv.Itoa(o.Code())
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}

	if width == 1 {
		return "…"
	}

	return string(r[:width-1]) + "…"
}

func paint(enabled bool, s string, codes ...color.Code) string {
	if !enabled {
		return s
	}

	return color.Paint(s, codes...)
}
