// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdspec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrEmptyCommand is returned when an argument carries no command to run.
	ErrEmptyCommand = errors.New("empty command line")
	// ErrNoCommands is returned when there is nothing to run at all.
	ErrNoCommands = errors.New("no commands specified")
)

// Spec is a single command to run, with the tag used to label its output.
// An empty Prefix means the output is not tagged.
type Spec struct {
	Prefix      string `yaml:"prefix,omitempty"`
	CommandLine string `yaml:"command"`
}

// Label returns the prefix, or the command line when there is no prefix.
func (s Spec) Label() string {
	if s.Prefix != "" {
		return s.Prefix
	}

	return s.CommandLine
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	if s.Prefix == "" {
		return s.CommandLine
	}

	return "[" + s.Prefix + "]:" + s.CommandLine
}

// Validate checks that s has a command line to run.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.CommandLine) == "" {
		return ErrEmptyCommand
	}

	return nil
}

// Parse turns one argument into a Spec.
//
// `[prefix]:command` accepts any prefix text. `[prefix] command` only treats the
// brackets as a prefix when they hold no whitespace, so shell tests such as
// `[ -f go.mod ] && make` are left alone.
func Parse(arg string) (Spec, error) {
	spec := Spec{CommandLine: arg}

	if strings.HasPrefix(arg, "[") {
		if end := strings.IndexByte(arg, ']'); end > 0 {
			prefix, rest := arg[1:end], arg[end+1:]

			switch {
			case strings.HasPrefix(rest, ":"):
				spec = Spec{Prefix: prefix, CommandLine: rest[1:]}
			case prefix != "" && !strings.ContainsFunc(prefix, unicode.IsSpace) &&
				rest != "" && unicode.IsSpace(rune(rest[0])):
				spec = Spec{Prefix: prefix, CommandLine: strings.TrimLeftFunc(rest, unicode.IsSpace)}
			}
		}
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, fmt.Errorf("%w: %q", err, arg)
	}

	return spec, nil
}

// ParseAll parses every argument, preserving order.
func ParseAll(args []string) ([]Spec, error) {
	if len(args) == 0 {
		return nil, ErrNoCommands
	}

	specs := make([]Spec, 0, len(args))

	for i, arg := range args {
		spec, err := Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
