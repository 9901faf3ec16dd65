package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/trackpilot/pkg/sequence"
)

// ParallelMap applies mapFn to each element of the iterator with at most
// workers goroutines, preserving order: out[k] is always the result for the
// k-th element, whatever order the workers finish in. workers <= 0 means
// GOMAXPROCS. The first error cancels ctx for the remaining calls and is
// returned.
func ParallelMap[T any, R any](
	ctx context.Context,
	i *sequence.Iterator[T],
	workers int,
	mapFn func(ctx context.Context, idx int, value T) (R, error),
) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, val := range in {
		idx, val := idx, val
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := mapFn(ctx, idx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
