package analytics

import (
	"context"
	"sync"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
)

// ComputeFunc computes a result for a date range. It must honor ctx.
type ComputeFunc[T any] func(ctx context.Context, r analytics.DateRange) (T, error)

// PublishFunc receives the result of the most recent trigger. It may call
// Trigger but must not call Wait or Close.
type PublishFunc[T any] func(r analytics.DateRange, v T, err error)

// Recomputer runs a computation whenever its trigger value changes and
// delivers only the newest result. Triggering cancels the context of the
// previous task; a task that finishes after being superseded is dropped
// even if it ignored the cancellation.
type Recomputer[T any] struct {
	parent       context.Context
	compute      ComputeFunc[T]
	publish      PublishFunc[T]
	onSuperseded func(r analytics.DateRange)

	// pubMu serializes deliveries without holding mu, so publish may call
	// Trigger.
	pubMu  sync.Mutex
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// RecomputerOption configures a Recomputer
type RecomputerOption[T any] func(*Recomputer[T])

// WithSupersededHook is called for every discarded result.
func WithSupersededHook[T any](fn func(r analytics.DateRange)) RecomputerOption[T] {
	return func(r *Recomputer[T]) {
		r.onSuperseded = fn
	}
}

// NewRecomputer creates a Recomputer. Tasks run under ctx.
func NewRecomputer[T any](ctx context.Context, compute ComputeFunc[T], publish PublishFunc[T], opts ...RecomputerOption[T]) *Recomputer[T] {
	r := &Recomputer[T]{
		parent:  ctx,
		compute: compute,
		publish: publish,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Trigger starts a computation for rng and supersedes any pending one.
// It returns the task generation.
func (r *Recomputer[T]) Trigger(rng analytics.DateRange) uint64 {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(r.parent)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		v, err := r.compute(ctx, rng)

		r.pubMu.Lock()
		defer r.pubMu.Unlock()

		r.mu.Lock()
		current := !r.closed && gen == r.gen
		if current {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()

		if !current {
			if r.onSuperseded != nil {
				r.onSuperseded(rng)
			}
			return
		}
		r.publish(rng, v, err)
	}()
	return gen
}

// Wait blocks until every started task has finished.
func (r *Recomputer[T]) Wait() {
	r.wg.Wait()
}

// Close cancels the pending task and waits for running ones to return.
// No result is published after Close.
func (r *Recomputer[T]) Close() {
	r.mu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}
