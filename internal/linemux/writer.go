// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linemux

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/Pingid/tasks/internal/color"
	"github.com/charmbracelet/lipgloss"
)

// Formatter renders a Line as `[prefix] text`.
type Formatter struct {
	NoPrefix bool // Never print tags
	Colour   bool // Colour tags by command index
	Width    int  // Pad tags so that text starts in the same column, see PrefixWidth
}

// PrefixWidth returns the display width of the widest prefix.
func PrefixWidth(prefixes []string) int {
	w := 0
	for _, p := range prefixes {
		w = max(w, lipgloss.Width(p))
	}

	return w
}

// Format renders l including the trailing newline.
func (f Formatter) Format(l Line) string {
	sb := strings.Builder{}
	sb.Grow(len(l.Prefix) + len(l.Text) + f.Width + 16)

	if !f.NoPrefix && l.Prefix != "" {
		prefix := l.Prefix
		if f.Colour {
			prefix = color.Paint(prefix, color.ForIndex(l.Index))
		}

		sb.WriteString("[")
		sb.WriteString(prefix)
		sb.WriteString("] ")

		if pad := f.Width - lipgloss.Width(l.Prefix); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
	}

	sb.WriteString(l.Text)
	sb.WriteString("\n")

	return sb.String()
}

// Writer is a Sink that formats lines and writes them to an io.Writer.
// Every line is written with one Write call under a mutex.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	format Formatter
}

// Option configures a Writer.
type Option func(*Writer)

// WithStderr routes stderr lines to w instead of the main writer.
func WithStderr(w io.Writer) Option {
	return func(wr *Writer) {
		wr.errOut = w
	}
}

// WithFormatter sets the line formatter.
func WithFormatter(f Formatter) Option {
	return func(wr *Writer) {
		wr.format = f
	}
}

// NewWriter creates a Writer sending every line to out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteLine implements Sink.
func (w *Writer) WriteLine(l Line) error {
	s := w.format.Format(l)

	w.mu.Lock()
	defer w.mu.Unlock()

	dst := w.out
	if l.Stream == Stderr && w.errOut != nil {
		dst = w.errOut
	}

	if _, err := io.WriteString(dst, s); err != nil {
		return errors.Join(ErrSinkWrite, err)
	}

	return nil
}
