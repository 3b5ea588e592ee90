// Package workers runs independent per-location work on a bounded set of
// goroutines.
package workers

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps per-goroutine work large enough to amortise scheduling
const minChunk = 64

// DefaultWorkers returns the number of goroutines used when none is configured
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ForEach calls fn(i) exactly once for every i in [0, n). Indices are split
// into contiguous chunks; at most workers chunks run at a time. fn must only
// write to state owned by index i. Cancellation is checked between indices;
// the returned error is the context's error, if any.
func ForEach(ctx context.Context, n, workers int, fn func(i int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	chunk := (n + workers*4 - 1) / (workers * 4)
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
