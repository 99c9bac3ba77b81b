package async

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settle calls f for every element of src concurrently, running at most concurrencyLimit
// calls at once (unbounded when <= 0), and waits for all of them. f cannot fail: every
// outcome, including errors, must be encoded in D. Results keep the order of src.
func Settle[T any, D any](ctx context.Context, src []T, concurrencyLimit int, f func(context.Context, int, T) D) []D {
	results := make([]D, len(src))
	if len(src) == 0 {
		return results
	}

	// a plain Group: a derived context would cancel siblings, which settle-all must not do
	var g errgroup.Group
	if concurrencyLimit > 0 {
		g.SetLimit(concurrencyLimit)
	}

	for i, el := range src {
		i, el := i, el
		g.Go(func() error {
			results[i] = f(ctx, i, el)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
