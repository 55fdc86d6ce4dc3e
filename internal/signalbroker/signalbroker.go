// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for termination signals and coordinates the
// shutdown of child processes.
//
// By default it listens for os.Interrupt, syscall.SIGINT, syscall.SIGTERM, and
// syscall.SIGQUIT. Signals are delivered through the Source interface so that
// tests, and the interactive status view, can inject their own.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Pingid/tasks/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// New creates a channel that receives the OS signals that should terminate the process.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Source delivers termination requests.
type Source interface {
	// Signals returns the channel signals arrive on.
	Signals() <-chan os.Signal
	// Stop releases the source. No signals are delivered afterwards.
	Stop()
}

// OSSource is a Source fed by signal.Notify.
type OSSource struct {
	ch   chan os.Signal
	once sync.Once
}

// NewOSSource starts listening for sigs, or the default termination signals if none are given.
func NewOSSource(ctx context.Context, sigs ...os.Signal) *OSSource {
	return &OSSource{ch: New(ctx, sigs...)}
}

// Signals implements Source.
func (s *OSSource) Signals() <-chan os.Signal {
	return s.ch
}

// Stop implements Source. It restores the default signal behaviour.
func (s *OSSource) Stop() {
	s.once.Do(func() {
		signal.Stop(s.ch)
	})
}

// ChannelSource is a Source backed by a plain channel.
type ChannelSource chan os.Signal

// Signals implements Source.
func (c ChannelSource) Signals() <-chan os.Signal {
	return c
}

// Stop implements Source. It is a no-op; the owner of the channel closes it.
func (c ChannelSource) Stop() {}

type mergedSource struct {
	ch   chan os.Signal
	srcs []Source
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Merge returns a Source that delivers the signals of all srcs.
// Stopping it stops every source.
func Merge(srcs ...Source) Source {
	m := &mergedSource{
		ch:   make(chan os.Signal, len(srcs)),
		srcs: srcs,
		quit: make(chan struct{}),
	}

	for _, src := range srcs {
		m.wg.Add(1)

		go func() {
			defer m.wg.Done()

			in := src.Signals()

			for {
				select {
				case <-m.quit:
					return
				case sig, ok := <-in:
					if !ok {
						return
					}

					select {
					case m.ch <- sig:
					case <-m.quit:
						return
					}
				}
			}
		}()
	}

	return m
}

// Signals implements Source.
func (m *mergedSource) Signals() <-chan os.Signal {
	return m.ch
}

// Stop implements Source.
func (m *mergedSource) Stop() {
	m.once.Do(func() {
		close(m.quit)

		for _, src := range m.srcs {
			src.Stop()
		}

		m.wg.Wait()
	})
}
