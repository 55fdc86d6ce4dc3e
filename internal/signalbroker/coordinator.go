// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/Pingid/tasks/internal/ctxlog"
	"github.com/hashicorp/go-multierror"
)

// DefaultGracePeriod is how long children get to exit after the first signal.
const DefaultGracePeriod = 5 * time.Second

// State is the shutdown state of a Coordinator.
type State int

const (
	// StateIdle means no termination was requested.
	StateIdle State = iota
	// StateSignalReceived means the first signal arrived.
	StateSignalReceived
	// StateForwarding means the signal is being forwarded to the children.
	StateForwarding
	// StateGracePeriod means the children are being given time to exit.
	StateGracePeriod
	// StateForceKilling means the remaining children are being killed.
	StateForceKilling
	// StateDone means every child has terminated.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSignalReceived:
		return "signal-received"
	case StateForwarding:
		return "forwarding"
	case StateGracePeriod:
		return "grace-period"
	case StateForceKilling:
		return "force-killing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Target is the set of children a Coordinator shuts down.
type Target interface {
	// Terminate asks every running child to exit by forwarding sig.
	// It must also stop new children from being started.
	Terminate(ctx context.Context, sig os.Signal) error
	// Kill forcibly kills every child that is still running. It must return
	// even when a kill cannot be confirmed.
	Kill(ctx context.Context) error
	// Done is closed once every child has terminated.
	Done() <-chan struct{}
}

// Coordinator forwards termination signals to a Target.
//
// The first signal is forwarded and starts the grace period. A second signal,
// or the end of the grace period, kills whatever is left. Further signals are
// ignored. Cancelling the context passed to Run kills immediately.
type Coordinator struct {
	source   Source
	target   Target
	grace    time.Duration
	observer func(from, to State)

	mu          sync.Mutex
	state       State
	signal      os.Signal
	interrupted bool
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithGracePeriod sets the time between forwarding the first signal and killing.
func WithGracePeriod(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.grace = d
	}
}

// WithObserver registers fn to be called on every state transition.
// It is called from the coordinator goroutine and must not block.
func WithObserver(fn func(from, to State)) CoordinatorOption {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// NewCoordinator creates a Coordinator. A nil source never delivers signals.
func NewCoordinator(source Source, target Target, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		source: source,
		target: target,
		grace:  DefaultGracePeriod,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Interrupted reports whether a signal or cancellation started a shutdown.
func (c *Coordinator) Interrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.interrupted
}

// Signal returns the first signal received, or nil.
func (c *Coordinator) Signal() os.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.signal
}

func (c *Coordinator) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	if c.observer != nil && from != to {
		c.observer(from, to)
	}
}

func (c *Coordinator) markInterrupted(sig os.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.interrupted = true
	if c.signal == nil {
		c.signal = sig
	}
}

// Run blocks until the target is done. The returned error collects failures
// to forward or kill; it never means the target is still running.
func (c *Coordinator) Run(ctx context.Context) error {
	logger := ctxlog.Logger(ctx).With("component", "signalbroker")

	var (
		sigs    <-chan os.Signal
		grace   <-chan time.Time
		timer   *time.Timer
		errs    *multierror.Error
		ctxDone = ctx.Done()
	)

	if c.source != nil {
		sigs = c.source.Signals()
	}

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}

		grace = nil
	}
	defer stopTimer()

	forceKill := func() {
		stopTimer()
		c.transition(StateForceKilling)

		if err := c.target.Kill(ctx); err != nil {
			logger.Warn("could not confirm all children were killed", "error", err)
			errs = multierror.Append(errs, err)
		}
	}

	for {
		select {
		case <-c.target.Done():
			c.transition(StateDone)
			return errs.ErrorOrNil()

		case sig, ok := <-sigs:
			if !ok {
				sigs = nil
				continue
			}

			switch c.State() {
			case StateIdle:
				logger.Info("received signal, forwarding to children", "signal", sig.String(), "gracePeriod", c.grace)
				c.markInterrupted(sig)
				c.transition(StateSignalReceived)
				c.transition(StateForwarding)

				if err := c.target.Terminate(ctx, sig); err != nil {
					logger.Warn("failed to forward signal", "signal", sig.String(), "error", err)
					errs = multierror.Append(errs, err)
				}

				c.transition(StateGracePeriod)

				timer = time.NewTimer(c.grace)
				grace = timer.C

			case StateGracePeriod:
				logger.Info("received second signal, killing children", "signal", sig.String())
				forceKill()

			default:
				logger.Debug("already terminating, ignoring signal", "signal", sig.String())
			}

		case <-grace:
			grace = nil

			logger.Info("grace period expired, killing children", "gracePeriod", c.grace)
			forceKill()

		case <-ctxDone:
			ctxDone = nil

			if c.State() == StateForceKilling {
				continue
			}

			logger.Info("context done, killing children", "error", ctx.Err())
			c.markInterrupted(nil)
			forceKill()
		}
	}
}
