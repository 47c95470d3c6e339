/*
Package workers sizes and runs bounded worker pools for CPU-bound thumbnail
work.

Sizing uses runtime.GOMAXPROCS(0), which honors container CPU limits, rather
than runtime.NumCPU(), which reports the host:

	n := workers.ForCPU(8, cfg.ThumbWorkers) // at most 8, override wins when > 0

Run executes a function over a slice with at most n concurrent calls, built
on errgroup:

	err := workers.Run(ctx, n, files, func(ctx context.Context, path string) error {
	    return warm(ctx, path)
	})

The thumbnail cache uses ForCPU to size its generation semaphore; the
warm command uses Run to pre-populate the cache.
*/
package workers
