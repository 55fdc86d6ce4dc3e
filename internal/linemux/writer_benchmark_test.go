// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linemux

import (
	"io"
	"testing"
)

func BenchmarkFormatter_Format(b *testing.B) {
	f := Formatter{Colour: true, Width: 8}
	l := Line{Index: 3, Prefix: "web", Text: "GET /healthz 200 1.2ms"}

	for b.Loop() {
		_ = f.Format(l)
	}
}

func BenchmarkWriter_WriteLineParallel(b *testing.B) {
	w := NewWriter(io.Discard, WithFormatter(Formatter{Colour: true}))

	b.RunParallel(func(pb *testing.PB) {
		l := Line{Index: 1, Prefix: "api", Text: "request served"}

		for pb.Next() {
			if err := w.WriteLine(l); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
