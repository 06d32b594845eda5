// Package worker runs fire-and-forget background tasks (analytics writes,
// email sends) on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool closed")

// Config sizes the pool.
type Config struct {
	Capacity       int
	ExpiryDuration time.Duration
	// Nonblocking makes Submit fail fast when the pool is saturated instead
	// of waiting for a free worker.
	Nonblocking      bool
	MaxBlockingTasks int
	// TaskTimeout bounds the context handed to each task.
	TaskTimeout time.Duration
}

// DefaultConfig returns the background pool configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:         32,
		ExpiryDuration:   60 * time.Second,
		Nonblocking:      true,
		MaxBlockingTasks: 100,
		TaskTimeout:      30 * time.Second,
	}
}

// Stats are cumulative task counters.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Rejected  int64
	Panicked  int64
}

// Pool is a named ants pool whose tasks receive a bounded context.
type Pool struct {
	name    string
	pool    *ants.Pool
	timeout time.Duration
	wg      sync.WaitGroup
	closed  atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	panicked  atomic.Int64
}

// New creates a worker pool.
func New(name string, cfg Config) (*Pool, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultConfig().TaskTimeout
	}

	p := &Pool{name: name, timeout: cfg.TaskTimeout}

	pool, err := ants.NewPool(cfg.Capacity,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithMaxBlockingTasks(cfg.MaxBlockingTasks),
		ants.WithPanicHandler(func(v any) {
			p.panicked.Add(1)
			slog.Error("worker panic recovered", "pool", name, "panic", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = pool

	slog.Debug("worker pool created", "pool", name, "capacity", cfg.Capacity)
	return p, nil
}

// Submit schedules task. The task's error is logged, never returned.
func (p *Pool) Submit(label string, task func(ctx context.Context) error) error {
	if p.closed.Load() {
		p.rejected.Add(1)
		return ErrPoolClosed
	}

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := task(ctx); err != nil {
			p.failed.Add(1)
			slog.Error("background task failed", "pool", p.name, "task", label, "error", err)
			return
		}
		p.completed.Add(1)
	})
	if err != nil {
		p.wg.Done()
		p.rejected.Add(1)
		return fmt.Errorf("submit %s: %w", label, err)
	}

	p.submitted.Add(1)
	return nil
}

// Running returns the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Stats returns a snapshot of the task counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// Close stops accepting tasks and waits for running ones until ctx ends.
func (p *Pool) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.pool.Release()
		return nil
	case <-ctx.Done():
		p.pool.Release()
		return ctx.Err()
	}
}
