// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

// ErrWriteReport is returned when the run report cannot be written.
var ErrWriteReport = errors.New("failed to write run report")

// Report is the machine-readable record of a run.
type Report struct {
	RunID       string          `yaml:"run_id"`
	StartedAt   string          `yaml:"started_at"`
	Duration    string          `yaml:"duration"`
	OverallCode int             `yaml:"overall_code"`
	Interrupted bool            `yaml:"interrupted"`
	Signal      string          `yaml:"signal,omitempty"`
	Commands    []CommandReport `yaml:"commands"`
}

// CommandReport is the record of one command.
type CommandReport struct {
	Index    int    `yaml:"index"`
	Prefix   string `yaml:"prefix,omitempty"`
	Command  string `yaml:"command"`
	Status   string `yaml:"status"`
	Code     int    `yaml:"code"`
	ExitCode *int   `yaml:"exit_code,omitempty"`
	Signal   string `yaml:"signal,omitempty"`
	Pid      int    `yaml:"pid,omitempty"`
	Duration string `yaml:"duration"`
	Error    string `yaml:"error,omitempty"`
	LastLine string `yaml:"last_line,omitempty"`
}

// Report builds the Report of r.
func (r *RunResult) Report() *Report {
	rep := &Report{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt.Format(time.RFC3339Nano),
		Duration:    r.Duration.Round(time.Millisecond).String(),
		OverallCode: r.OverallCode,
		Interrupted: r.Interrupted,
		Signal:      r.Signal,
		Commands:    make([]CommandReport, 0, len(r.Outcomes)),
	}

	for _, o := range r.Outcomes {
		c := CommandReport{
			Index:    o.Index,
			Prefix:   o.Spec.Prefix,
			Command:  o.Spec.CommandLine,
			Status:   o.Status.String(),
			Code:     o.Code(),
			ExitCode: o.ExitCode,
			Signal:   o.Signal,
			Pid:      o.Pid,
			Duration: o.Duration.Round(time.Millisecond).String(),
			LastLine: o.LastLine,
		}

		if o.Err != nil {
			c.Error = o.Err.Error()
		}

		rep.Commands = append(rep.Commands, c)
	}

	return rep
}

// WriteReport writes the YAML report of r to w.
func (r *RunResult) WriteReport(w io.Writer) error {
	data, err := yaml.Marshal(r.Report())
	if err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	if _, err := w.Write(data); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}

// WriteReportFile writes the YAML report of r to path, creating parent directories.
func WriteReportFile(path string, r *RunResult) error {
	fs := FsFactory()

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Join(ErrWriteReport, err)
		}
	}

	data, err := yaml.Marshal(r.Report())
	if err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Join(ErrWriteReport, fmt.Errorf("%s: %w", path, err))
	}

	return nil
}
