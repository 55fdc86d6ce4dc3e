// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linemux

import (
	"errors"
	"sync"
)

var (
	// ErrSinkWrite is returned when a line could not be written to the sink.
	// It is fatal for the run.
	ErrSinkWrite = errors.New("failed to write to output sink")
	// ErrStreamRead is returned when a command's output stream failed with
	// something other than end of stream.
	ErrStreamRead = errors.New("failed to read output stream")
)

// Stream identifies which output stream of a command a line came from.
type Stream int

const (
	// Stdout is the standard output stream.
	Stdout Stream = iota
	// Stderr is the standard error stream.
	Stderr
)

// String implements fmt.Stringer.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Line is one complete line of command output, without its terminator.
type Line struct {
	Index  int    // Position of the originating command in the run
	Prefix string // Tag of the originating command, may be empty
	Text   string
	Stream Stream
}

// Sink receives complete lines. Implementations must be safe for concurrent use.
type Sink interface {
	WriteLine(Line) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Line) error

// WriteLine implements Sink.
func (f SinkFunc) WriteLine(l Line) error {
	return f(l)
}

// MemorySink keeps every line in memory, in arrival order.
type MemorySink struct {
	mu    sync.Mutex
	lines []Line
}

// WriteLine implements Sink.
func (m *MemorySink) WriteLine(l Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = append(m.lines, l)

	return nil
}

// Lines returns a copy of the lines received so far.
func (m *MemorySink) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Line, len(m.lines))
	copy(out, m.lines)

	return out
}

// ForIndex returns the text of every line received from the command at index i.
func (m *MemorySink) ForIndex(i int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string

	for _, l := range m.lines {
		if l.Index == i {
			out = append(out, l.Text)
		}
	}

	return out
}
