package pushz

import (
	"context"
)

// Transform creates a Processor that applies a pure transformation to every item.
// Transform is the simplest stage - use it when your operation always succeeds
// and always produces exactly one item for each item it receives.
//
// The transformation function cannot fail, making Transform ideal for:
//   - Data formatting (uppercase, trimming)
//   - Mathematical calculations that can't error
//   - Field mapping or restructuring
//   - Adding computed fields
//
// If your transformation might fail, use Apply instead.
// If you need conditional transformation, use Mutate.
// If one item should become several, use FlatMap.
//
// Example:
//
//	double := pushz.Transform("double", func(_ context.Context, n int) int {
//	    return n * 2
//	})
func Transform[T any](name Name, fn func(context.Context, T) T) Processor[T] {
	return Processor[T]{
		name: name,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			return fn(ctx, item), true, nil
		},
	}
}
