/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package admission

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is the number of operations admitted at once when no capacity is configured.
const DefaultCapacity = 4

// Opts contains optional parameters for the Gate.
type Opts struct {
	// OnChange is called after every change of the active or waiting counters.
	// Calls are serialized and the last call always reports the current counters.
	// It must not block.
	OnChange func(active, waiting int)
}

// Gate admits at most Capacity callers at a time.
// Callers above the capacity wait and are admitted strictly in arrival order.
type Gate struct {
	capacity int
	sem      *semaphore.Weighted
	active   atomic.Int32
	waiting  atomic.Int32
	onChange func(active, waiting int)
	notifyMu sync.Mutex
}

// New creates a new Gate with the given capacity.
func New(capacity int) (*Gate, error) {
	return NewWithOpts(capacity, Opts{})
}

// NewWithOpts creates a new Gate with the given capacity and options.
func NewWithOpts(capacity int, opts Opts) (*Gate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity should be positive, got %d", capacity)
	}
	return &Gate{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
		onChange: opts.OnChange,
	}, nil
}

// Acquire blocks until a slot is free or ctx is done.
// Every successful Acquire must be paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	g.waiting.Inc()
	g.notify()
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Dec()
	if err != nil {
		g.notify()
		return err
	}
	g.active.Inc()
	g.notify()
	return nil
}

// Release frees a slot and hands it to the longest waiting caller, if any.
// It panics when called without a matching Acquire.
func (g *Gate) Release() {
	if g.active.Dec() < 0 {
		g.active.Inc()
		panic("admission: release without acquire")
	}
	g.sem.Release(1)
	g.notify()
}

// Do runs fn holding a slot. The slot is released on every exit path, panics included.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// Active returns the number of callers currently holding a slot.
func (g *Gate) Active() int {
	return int(g.active.Load())
}

// Waiting returns the number of callers queued for a slot.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}

// Capacity returns the maximum number of callers admitted at once.
func (g *Gate) Capacity() int {
	return g.capacity
}

func (g *Gate) notify() {
	if g.onChange == nil {
		return
	}
	// Counters are read under the lock, so a report taken before a change can't be published after it.
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	g.onChange(g.Active(), g.Waiting())
}
