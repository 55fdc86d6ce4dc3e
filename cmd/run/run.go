// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the action that runs commands concurrently.
package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Pingid/tasks/internal/cmdspec"
	"github.com/Pingid/tasks/internal/color"
	"github.com/Pingid/tasks/internal/ctxlog"
	"github.com/Pingid/tasks/internal/linemux"
	"github.com/Pingid/tasks/internal/progress"
	"github.com/Pingid/tasks/internal/runbatch"
	"github.com/Pingid/tasks/internal/signalbroker"
	"github.com/Pingid/tasks/internal/tui"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

const (
	noPrefixFlag    = "no-prefix"
	padPrefixFlag   = "pad-prefix"
	noColorFlag     = "no-color"
	splitStderrFlag = "split-stderr"
	shellFlag       = "shell"
	gracePeriodFlag = "grace-period"
	waitDelayFlag   = "wait-delay"
	noSummaryFlag   = "no-summary"
	reportFlag      = "report"
	tuiFlag         = "tui"
	verboseFlag     = "verbose"
	cliExitStr      = ""

	// usageExitCode is returned when the arguments cannot be parsed.
	usageExitCode = 2
)

// SignalSourceFactory creates the source of termination signals for a run.
var SignalSourceFactory = func(ctx context.Context) signalbroker.Source {
	return signalbroker.NewOSSource(ctx)
}

// Flags returns the flags of the run action.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  noPrefixFlag,
			Usage: "Do not tag output lines with the command prefix",
		},
		&cli.BoolFlag{
			Name:  padPrefixFlag,
			Usage: "Pad prefixes so that output starts in the same column",
		},
		&cli.BoolFlag{
			Name:  noColorFlag,
			Usage: "Disable colours. Also disabled by setting NO_COLOR",
		},
		&cli.BoolFlag{
			Name:  splitStderrFlag,
			Usage: "Write the stderr of commands to stderr instead of stdout",
		},
		&cli.StringFlag{
			Name:    shellFlag,
			Usage:   "Interpreter used to run each command line",
			Sources: cli.EnvVars("TASKS_SHELL"),
		},
		&cli.DurationFlag{
			Name:    gracePeriodFlag,
			Usage:   "Time commands have to exit after a termination signal before they are killed",
			Value:   signalbroker.DefaultGracePeriod,
			Sources: cli.EnvVars("TASKS_GRACE_PERIOD"),
		},
		&cli.DurationFlag{
			Name:  waitDelayFlag,
			Usage: "Time to keep reading output after a command exits",
			Value: runbatch.DefaultWaitDelay,
		},
		&cli.BoolFlag{
			Name:  noSummaryFlag,
			Usage: "Do not print the summary table",
		},
		&cli.StringFlag{
			Name:      reportFlag,
			Usage:     "Write a YAML report of the run to this file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:    tuiFlag,
			Aliases: []string{"t"},
			Usage:   "Show a live status board instead of the command output",
		},
		&cli.BoolFlag{
			Name:  verboseFlag,
			Usage: "Enable debug logging",
		},
	}
}

// Action runs every positional argument as a command.
func Action(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool(verboseFlag) {
		ctxlog.LevelVar.Set(slog.LevelDebug)
	}

	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	specs, err := cmdspec.ParseAll(cmd.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), usageExitCode)
	}

	if cmd.Bool(noColorFlag) {
		color.SetEnabled(false)
	}

	launcher := &runbatch.Launcher{
		Shell: cmd.String(shellFlag),
	}

	if color.Enabled() {
		launcher.Env = map[string]string{color.ForceColor: "1"}
	}

	batch := &runbatch.ParallelBatch{
		Specs:       specs,
		Launcher:    launcher,
		GracePeriod: cmd.Duration(gracePeriodFlag),
		WaitDelay:   cmd.Duration(waitDelayFlag),
		RunID:       uuid.NewString(),
	}

	var (
		res    *runbatch.RunResult
		runErr error
	)

	logger.Debug("running commands", "count", len(specs), "runId", batch.RunID)

	switch cmd.Bool(tuiFlag) {
	case true:
		res, runErr = runWithTUI(ctx, cmd, batch)
	default:
		batch.Sink = newSink(cmd, cmd.Writer, specs)
		batch.Source = SignalSourceFactory(ctx)

		defer batch.Source.Stop()

		res, runErr = batch.Run(ctx)
	}

	if res != nil && !cmd.Bool(noSummaryFlag) {
		opts := runbatch.DefaultOutputOptions()
		opts.Colour = color.Enabled()

		if err := res.WriteWithOptions(cmd.ErrWriter, opts); err != nil {
			logger.Error(fmt.Sprintf("Failed to write summary: %s", err.Error()))
		}
	}

	if path := cmd.String(reportFlag); path != "" && res != nil {
		if err := runbatch.WriteReportFile(path, res); err != nil {
			logger.Error(fmt.Sprintf("Failed to write report %s: %s", path, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		logger.Info(fmt.Sprintf("Report written to %s", path))
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return cli.Exit(cliExitStr, 1)
	}

	if code := res.OverallCode; code != 0 {
		return cli.Exit(cliExitStr, code)
	}

	return nil
}

// newSink builds the line writer for out from the output flags.
func newSink(cmd *cli.Command, out io.Writer, specs []cmdspec.Spec) *linemux.Writer {
	format := linemux.Formatter{
		NoPrefix: cmd.Bool(noPrefixFlag),
		Colour:   color.Enabled(),
	}

	if cmd.Bool(padPrefixFlag) {
		prefixes := make([]string, len(specs))
		for i, s := range specs {
			prefixes[i] = s.Prefix
		}

		format.Width = linemux.PrefixWidth(prefixes)
	}

	opts := []linemux.Option{linemux.WithFormatter(format)}
	if cmd.Bool(splitStderrFlag) {
		opts = append(opts, linemux.WithStderr(cmd.ErrWriter))
	}

	return linemux.NewWriter(out, opts...)
}

// runWithTUI runs batch behind the status board. Command output and logs are
// held back while the board owns the terminal and written once it exits.
func runWithTUI(ctx context.Context, cmd *cli.Command, batch *runbatch.ParallelBatch) (*runbatch.RunResult, error) {
	outBuf := new(bytes.Buffer)
	logBuf := new(bytes.Buffer)

	tuiCtx := ctxlog.New(ctx, slog.New(ctxlog.NewPrettyHandler(
		&slog.HandlerOptions{Level: ctxlog.LevelVar},
		ctxlog.WithDestinationWriter(logBuf),
	)))

	batch.Sink = newSink(cmd, outBuf, batch.Specs)

	source := SignalSourceFactory(ctx)
	runner := tui.NewRunner(tuiCtx, batch.RunID, batch.Specs)

	res, err := runner.Run(tuiCtx, func(ctx context.Context, reporter progress.Reporter, source signalbroker.Source) (*runbatch.RunResult, error) {
		batch.Reporter = reporter
		batch.Source = source

		return batch.Run(ctx)
	}, source)

	outBuf.WriteTo(cmd.Writer)    //nolint:errcheck
	logBuf.WriteTo(cmd.ErrWriter) //nolint:errcheck

	return res, err
}
