// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	sbPadding = 16 // padding for the strings.Builder
)

// Code represents an ANSI control code for text formatting.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"
	reset      = "\033[0m"
	prefix     = "\033["
	suffix     = "m"
)

// Control codes for text formatting.
const (
	Reset Code = iota
	Bold
	Faint
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

// prefixPalette is cycled through by command index.
var prefixPalette = [...]Code{FgRed, FgGreen, FgYellow, FgBlue, FgMagenta, FgCyan}

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable(os.Stdout))
}

// ForIndex returns the prefix colour for the command at position i.
// Negative indexes wrap the same way as positive ones.
func ForIndex(i int) Code {
	n := len(prefixPalette)

	return prefixPalette[((i%n)+n)%n]
}

// ControlString generates a string with ANSI control codes for text formatting.
func ControlString(c ...Code) string {
	sb := strings.Builder{}
	sb.Grow(len(prefix) + len(suffix) + sbPadding)
	sb.WriteString(prefix)
	writeCodes(&sb, c)
	sb.WriteString(suffix)

	return sb.String()
}

// Paint wraps str in the given codes and a trailing reset, regardless of whether
// color output is enabled for the process.
func Paint(str string, colorCodes ...Code) string {
	if len(colorCodes) == 0 {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(prefix) + len(suffix) + len(reset) + sbPadding)
	sb.WriteString(prefix)
	writeCodes(&sb, colorCodes)
	sb.WriteString(suffix)
	sb.WriteString(str)
	sb.WriteString(reset)

	return sb.String()
}

// Colorize returns a string with ANSI color codes applied.
// It returns str unchanged when color output is disabled.
func Colorize(str string, colorCodes ...Code) string {
	if !enabled.Load() {
		return str
	}

	return Paint(str, colorCodes...)
}

// Enabled reports whether color output is enabled.
//
// It is initialized in package init(): NO_COLOR disables color, otherwise
// FORCE_COLOR enables it, otherwise it is enabled when stdout is a terminal.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides the detected setting, e.g. for a --no-color flag.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

func writeCodes(sb *strings.Builder, codes []Code) {
	for i, code := range codes {
		if i > 0 {
			sb.WriteString(";")
		}

		sb.WriteString(strconv.Itoa(int(code)))
	}
}

func isColorCapable(f *os.File) bool {
	if nc := os.Getenv(NoColor); nc != "" {
		return false
	}

	if fc := os.Getenv(ForceColor); fc != "" {
		return true
	}

	return IsTerminal(f)
}
