// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		expected  string
	}{
		{name: "EventStarted", eventType: EventStarted, expected: "started"},
		{name: "EventOutput", eventType: EventOutput, expected: "output"},
		{name: "EventCompleted", eventType: EventCompleted, expected: "completed"},
		{name: "EventFailed", eventType: EventFailed, expected: "failed"},
		{name: "EventShutdown", eventType: EventShutdown, expected: "shutdown"},
		{name: "Unknown event type", eventType: EventType(999), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestNullReporter(t *testing.T) {
	reporter := NewNullReporter()
	require.NotNil(t, reporter)

	reporter.Report(Event{
		Index:     0,
		Prefix:    "web",
		Type:      EventStarted,
		Timestamp: time.Now(),
	})

	reporter.Close()
}

func TestChannelReporter(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 10)
	require.NotNil(t, reporter)

	event := Event{
		Index:     1,
		Prefix:    "api",
		Command:   "go run .",
		Type:      EventStarted,
		Message:   "started",
		Timestamp: time.Now(),
		Data:      EventData{Pid: 1234},
	}

	reporter.Report(event)

	select {
	case received := <-reporter.Events():
		assert.Equal(t, event.Index, received.Index)
		assert.Equal(t, event.Prefix, received.Prefix)
		assert.Equal(t, event.Type, received.Type)
		assert.Equal(t, 1234, received.Data.Pid)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Event not received within timeout")
	}

	reporter.Close()

	// dropped, must not panic
	reporter.Report(Event{Type: EventCompleted})
	reporter.Close()
}

func TestChannelReporter_BufferOverflow(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 1)

	reporter.Report(Event{Type: EventStarted})
	reporter.Report(Event{Type: EventOutput})

	reporter.Close()
}

func TestChannelReporter_ConcurrentReportAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 4)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				reporter.Report(Event{Index: i, Type: EventOutput})
			}
		}()
	}

	reporter.Close()
	wg.Wait()
}

type mockListener struct {
	mu     sync.Mutex
	events []Event
}

func (ml *mockListener) OnEvent(event Event) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.events = append(ml.events, event)
}

func TestChannelReporter_Listen(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 10)
	listener := &mockListener{}

	reporter.Listen(listener)

	events := []Event{
		{Index: 0, Type: EventStarted},
		{Index: 0, Type: EventOutput, Data: EventData{OutputLine: "hello"}},
		{Index: 0, Type: EventCompleted, Data: EventData{ExitCode: 0}},
	}

	for _, event := range events {
		reporter.Report(event)
	}

	// Close drains buffered events before returning.
	reporter.Close()

	require.Len(t, listener.events, len(events))

	for i, expected := range events {
		assert.Equal(t, expected.Type, listener.events[i].Type)
	}

	assert.Equal(t, "hello", listener.events[1].Data.OutputLine)
}

func TestListenerFunc(t *testing.T) {
	var got Event

	ListenerFunc(func(e Event) { got = e }).OnEvent(Event{Prefix: "x"})
	assert.Equal(t, "x", got.Prefix)
}
