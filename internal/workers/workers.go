package workers

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (decode, resize, encode)
//   - 2.0 for I/O-bound tasks
//
// A positive override (thumbs.workers in configuration) replaces the computed
// value. The limit caps the result; use 0 for no limit.
func Count(multiplier float64, limit, override int) int {
	workers := override
	if workers <= 0 {
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit, override int) int {
	return Count(1.0, limit, override)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit, override int) int {
	return Count(2.0, limit, override)
}

// Run calls fn for every item with at most n calls in flight. The first
// error cancels the context passed to the remaining calls and is returned
// once every started call has finished.
func Run[T any](ctx context.Context, n int, items []T, fn func(ctx context.Context, item T) error) error {
	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
