// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the tasks command-line application.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/Pingid/tasks/cmd"
	"github.com/Pingid/tasks/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)

	err := cmd.RootCmd.Run(ctx, os.Args)
	if err == nil {
		os.Exit(0)
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			ctxlog.Error(ctx, msg)
		}

		os.Exit(exitErr.ExitCode())
	}

	ctxlog.Error(ctx, "command failed", "error", err)
	os.Exit(1)
}
