package pushz

import (
	"context"
)

// Effect creates a Processor that performs a side effect and forwards the item unchanged.
// Effect is for operations that observe the stream mid-chain, such as logging,
// counting, or collecting into an external buffer, without terminating it.
//
// Any returned error stops the pipeline. The item always passes through
// unchanged otherwise.
//
// Example:
//
//	var seen []Reading
//	spy := pushz.Effect("spy", func(_ context.Context, r Reading) error {
//	    seen = append(seen, r)
//	    return nil
//	})
//	res, err := pushz.Run(ctx, pushz.FromSlice(readings), spy, pushz.Output("", pushz.Count[Reading]()))
func Effect[T any](name Name, fn func(context.Context, T) error) Processor[T] {
	return Processor[T]{
		name: name,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			if err := fn(ctx, item); err != nil {
				return item, false, err
			}
			return item, true, nil
		},
	}
}
