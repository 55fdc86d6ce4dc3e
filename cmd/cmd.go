// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/Pingid/tasks/cmd/run"
	"github.com/Pingid/tasks/internal/version"
	"github.com/urfave/cli/v3"
)

// RootCmd is the root command for the CLI.
var RootCmd = New(os.Stdout, os.Stderr)

// New creates the root command writing command output to stdout and
// diagnostics to stderr. Exit codes are returned as cli.ExitCoder errors
// rather than exiting the process.
func New(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "tasks",
		Usage:     "run commands concurrently with prefixed output",
		UsageText: `tasks [options] "[web] npm start" "[api]:go run ./cmd/api" "make watch"`,
		Description: `Runs every argument as a shell command at the same time.
Each line of output is tagged with the prefix of the command that wrote it.
An interrupt is forwarded to every command, which are killed if they have
not exited when the grace period ends.

The exit code is the first non-zero exit code in argument order, or 130 if
the run was interrupted.`,
		Version:   version.String(),
		Writer:    stdout,
		ErrWriter: stderr,
		Copyright: "Copyright (c) Pingid 2025. All rights reserved.",
		Flags:     run.Flags(),
		Action:    run.Action,
		ExitErrHandler: func(context.Context, *cli.Command, error) {
			// main owns process exit
		},
	}
}
