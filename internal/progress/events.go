// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a real-time update about one command, or about the run as a whole.
type Event struct {
	Index     int       // Position of the command on the command line, -1 for run-level events
	Prefix    string    // Display prefix of the command
	Command   string    // Command line of the command
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a command has been spawned.
	EventStarted EventType = iota
	// EventOutput indicates a command emitted a line.
	EventOutput
	// EventCompleted indicates a command exited with code zero.
	EventCompleted
	// EventFailed indicates a command failed to start, exited non-zero or was killed.
	EventFailed
	// EventShutdown indicates the run changed its shutdown state.
	EventShutdown
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventStarted
	Pid int

	// For EventOutput
	OutputLine string
	IsStderr   bool

	// For EventCompleted/EventFailed
	ExitCode int
	Status   string
	Error    error

	// For EventShutdown
	State string
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for every event received.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (nr *NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
