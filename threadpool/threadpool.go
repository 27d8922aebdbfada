// Package threadpool is the parallel-for facade the core depends on.
//
// The core schedules work across two independent axes (prediction-point
// zones, subgroup pairs); both go through ParallelFor so the scheduling
// policy — and its first-error-wins cancellation — lives in one place
// instead of being reimplemented at every call site.
package threadpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs an indexed unit of work over [0,n) using up to workers
// goroutines at a time.
type Pool interface {
	// ParallelFor calls fn(i) for every i in [0,n). If workers <= 1 it runs
	// fn sequentially on the caller's goroutine. The first error returned by
	// fn aborts the remaining work and is returned to the caller; in-flight
	// calls to fn are allowed to finish but their errors are discarded.
	ParallelFor(n, workers int, fn func(i int) error) error
}

// ErrGroupPool is the default Pool, built on golang.org/x/sync/errgroup so
// a failing unit of work cancels its siblings instead of the phase running
// to completion with a discarded error, matching the "exception
// propagation" design note: failures inside a parallel phase must abort
// that phase and surface as a single fatal result.
type ErrGroupPool struct{}

// New returns the default errgroup-backed Pool.
func New() *ErrGroupPool { return &ErrGroupPool{} }

func (ErrGroupPool) ParallelFor(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(i)
		})
	}
	return g.Wait()
}
