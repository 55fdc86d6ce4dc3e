// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, isColorCapable(nil), "Expected color output to be disabled")

	t.Setenv("FORCE_COLOR", "1")
	assert.False(t, isColorCapable(nil), "Expected color output to be disabled as NO_COLOR is still set")

	t.Setenv("NO_COLOR", "")
	assert.True(t, isColorCapable(nil), "Expected color output to be enabled as FORCE_COLOR is set and NO_COLOR is unset")

	t.Setenv("FORCE_COLOR", "")
	assert.False(t, isColorCapable(nil), "Expected color output to be disabled for a non-terminal")
}

func TestPaint(t *testing.T) {
	assert.Equal(t, "\033[31mfoo\033[0m", Paint("foo", FgRed))
	assert.Equal(t, "\033[1;32mfoo\033[0m", Paint("foo", Bold, FgGreen))
	assert.Equal(t, "foo", Paint("foo"))
}

func TestColorizeHonoursEnabled(t *testing.T) {
	prev := Enabled()
	t.Cleanup(func() { SetEnabled(prev) })

	SetEnabled(false)
	assert.Equal(t, "foo", Colorize("foo", FgRed))

	SetEnabled(true)
	assert.Equal(t, "\033[31mfoo\033[0m", Colorize("foo", FgRed))
}

func TestForIndex(t *testing.T) {
	tests := []struct {
		index int
		want  Code
	}{
		{0, FgRed},
		{1, FgGreen},
		{5, FgCyan},
		{6, FgRed},
		{13, FgGreen},
		{-1, FgCyan},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ForIndex(tt.index), "index %d", tt.index)
	}
}

func TestControlString(t *testing.T) {
	assert.Equal(t, "\033[0m", ControlString(Reset))
	assert.Equal(t, "\033[1;31m", ControlString(Bold, FgRed))
}
