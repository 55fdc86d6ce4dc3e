// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linemux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDrain_Lines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single line", input: "hello\n", want: []string{"hello"}},
		{name: "final partial line is flushed", input: "a\nb", want: []string{"a", "b"}},
		{name: "crlf is stripped", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "empty lines are kept", input: "a\n\nb\n", want: []string{"a", "", "b"}},
		{name: "leading whitespace is kept", input: "  indented\n", want: []string{"  indented"}},
		{name: "empty stream", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &MemorySink{}

			err := Drain(strings.NewReader(tt.input), Line{Index: 3, Prefix: "p", Stream: Stderr}, sink, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, sink.ForIndex(3))

			for _, l := range sink.Lines() {
				assert.Equal(t, "p", l.Prefix)
				assert.Equal(t, Stderr, l.Stream)
			}
		})
	}
}

func TestDrain_OneByteReads(t *testing.T) {
	sink := &MemorySink{}

	err := Drain(iotest.OneByteReader(strings.NewReader("first\nsecond\nthird")), Line{}, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, sink.ForIndex(0))
}

func TestDrain_LongLineIsSplit(t *testing.T) {
	sink := &MemorySink{}
	input := strings.Repeat("x", 2*MaxLineLength+10) + "\nshort\n"

	err := Drain(strings.NewReader(input), Line{}, sink, nil)
	require.NoError(t, err)

	got := sink.ForIndex(0)
	require.Len(t, got, 4)
	assert.Len(t, got[0], MaxLineLength)
	assert.Len(t, got[1], MaxLineLength)
	assert.Equal(t, strings.Repeat("x", 10), got[2])
	assert.Equal(t, "short", got[3])
}

func TestDrain_ReadErrorFlushesAndReports(t *testing.T) {
	sink := &MemorySink{}
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("ok\npartial"), iotest.ErrReader(boom))

	err := Drain(r, Line{}, sink, nil)
	require.ErrorIs(t, err, ErrStreamRead)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok", "partial"}, sink.ForIndex(0))
}

func TestDrain_ClosedPipeIsEndOfStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()

	go func() {
		_, _ = pw.Write([]byte("before close\n"))
		_ = pw.CloseWithError(io.ErrClosedPipe)
	}()

	sink := &MemorySink{}
	require.NoError(t, Drain(pr, Line{}, sink, nil))
	assert.Equal(t, []string{"before close"}, sink.ForIndex(0))
}

func TestDrain_SinkErrorIsFatal(t *testing.T) {
	calls := 0
	sink := SinkFunc(func(Line) error {
		calls++
		return errors.New("disk full")
	})

	err := Drain(strings.NewReader("a\nb\n"), Line{}, sink, nil)
	require.ErrorIs(t, err, ErrSinkWrite)
	assert.Equal(t, 1, calls, "drain must stop at the first sink failure")
}

func TestDrain_OnLineCallback(t *testing.T) {
	var seen []string

	err := Drain(strings.NewReader("a\nb\n"), Line{Prefix: "x"}, &MemorySink{}, func(l Line) {
		seen = append(seen, l.Prefix+":"+l.Text)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x:a", "x:b"}, seen)
}

// TestDrain_NoCrossTalk drains many producers that write in small fragments
// into one Writer and checks every emitted line belongs to exactly one producer.
func TestDrain_NoCrossTalk(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		producers = 8
		lines     = 200
	)

	var out bytes.Buffer

	w := NewWriter(&out)
	wg := sync.WaitGroup{}

	for p := range producers {
		pr, pw := io.Pipe()
		prefix := fmt.Sprintf("p%d", p)

		wg.Add(2)

		go func() {
			defer wg.Done()
			defer pw.Close()

			for i := range lines {
				msg := fmt.Sprintf("%s-line-%03d-%s\n", prefix, i, strings.Repeat("z", i%7))
				// Write in fragments to force partial reads.
				for len(msg) > 0 {
					n := min(3, len(msg))
					_, _ = pw.Write([]byte(msg[:n]))
					msg = msg[n:]
				}
			}
		}()

		go func() {
			defer wg.Done()
			assert.NoError(t, Drain(pr, Line{Index: p, Prefix: prefix}, w, nil))
		}()
	}

	wg.Wait()

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, got, producers*lines)

	next := make(map[string]int)

	for _, l := range got {
		var tag, body string

		_, err := fmt.Sscanf(l, "[%2s] %s", &tag, &body)
		require.NoError(t, err, "malformed line %q", l)
		require.True(t, strings.HasPrefix(body, tag+"-line-"), "cross-talk in %q", l)

		var seq int

		_, err = fmt.Sscanf(strings.TrimPrefix(body, tag+"-line-"), "%3d", &seq)
		require.NoError(t, err)
		assert.Equal(t, next[tag], seq, "lines of %s out of order", tag)
		next[tag] = seq + 1
	}
}
