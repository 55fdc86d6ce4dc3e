// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linemux

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

const (
	// MaxLineLength caps how much of a single line is buffered. Longer lines are
	// emitted in pieces of this size.
	MaxLineLength  = 1 << 20
	readBufferSize = 64 << 10
)

// Drain reads r until end of stream and writes every complete line to sink.
// Lines are stamped with the Index, Prefix and Stream of tmpl. A final line
// without a terminator is flushed when the stream ends.
//
// onLine, if not nil, is called after each line has been written.
//
// Drain returns nil at end of stream, including when r was closed under it.
// Sink failures are returned wrapped in ErrSinkWrite, other read failures in
// ErrStreamRead; in both cases everything read so far has been flushed.
func Drain(r io.Reader, tmpl Line, sink Sink, onLine func(Line)) error {
	br := bufio.NewReaderSize(r, readBufferSize)
	pending := make([]byte, 0, readBufferSize)

	emit := func(text []byte) error {
		l := tmpl
		l.Text = string(trimEOL(text))

		if err := sink.WriteLine(l); err != nil {
			if !errors.Is(err, ErrSinkWrite) {
				err = errors.Join(ErrSinkWrite, err)
			}

			return err
		}

		if onLine != nil {
			onLine(l)
		}

		return nil
	}

	for {
		chunk, err := br.ReadSlice('\n')

		if err == nil {
			text := chunk
			if len(pending) > 0 {
				pending = append(pending, chunk...)
				text = pending
			}

			if err := emit(text); err != nil {
				return err
			}

			pending = pending[:0]

			continue
		}

		pending = append(pending, chunk...)

		if errors.Is(err, bufio.ErrBufferFull) {
			for len(pending) >= MaxLineLength {
				if err := emit(pending[:MaxLineLength]); err != nil {
					return err
				}

				pending = append(pending[:0], pending[MaxLineLength:]...)
			}

			continue
		}

		if len(pending) > 0 {
			if err := emit(pending); err != nil {
				return err
			}
		}

		if isEndOfStream(err) {
			return nil
		}

		return errors.Join(ErrStreamRead, err)
	}
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))

	return bytes.TrimSuffix(b, []byte("\r"))
}

func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
