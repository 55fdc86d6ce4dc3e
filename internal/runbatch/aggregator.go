// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateOutcome is returned when a command already has an outcome.
	ErrDuplicateOutcome = errors.New("outcome already recorded")
	// ErrUnknownIndex is returned when an outcome refers to no known command.
	ErrUnknownIndex = errors.New("outcome for unknown command index")
)

// Aggregator collects exactly one Outcome per command.
type Aggregator struct {
	mu       sync.Mutex
	outcomes []*Outcome
	wg       sync.WaitGroup
}

// NewAggregator creates an Aggregator expecting n outcomes.
func NewAggregator(n int) *Aggregator {
	a := &Aggregator{
		outcomes: make([]*Outcome, n),
	}
	a.wg.Add(n)

	return a
}

// Record stores o. The first outcome for an index wins.
func (a *Aggregator) Record(o *Outcome) error {
	a.mu.Lock()

	if o.Index < 0 || o.Index >= len(a.outcomes) {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownIndex, o.Index)
	}

	if a.outcomes[o.Index] != nil {
		a.mu.Unlock()
		return fmt.Errorf("%w: index %d", ErrDuplicateOutcome, o.Index)
	}

	a.outcomes[o.Index] = o
	a.mu.Unlock()

	a.wg.Done()

	return nil
}

// Wait blocks until every command has an outcome and returns them in command order.
func (a *Aggregator) Wait() []*Outcome {
	a.wg.Wait()

	return a.Outcomes()
}

// Outcomes returns a snapshot of the outcomes recorded so far. Missing ones are nil.
func (a *Aggregator) Outcomes() []*Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Outcome, len(a.outcomes))
	copy(out, a.outcomes)

	return out
}
