package pushz

import (
	"context"
)

// Mutate creates a Processor that transforms only the items matching a condition.
// Items for which the condition returns false pass through unchanged.
//
// This is cleaner than embedding if-statements in Transform functions and
// keeps the condition explicit and testable.
//
// Example:
//
//	discount := pushz.Mutate("premium_discount",
//	    func(_ context.Context, o Order) Order {
//	        o.Total *= 0.9
//	        return o
//	    },
//	    func(_ context.Context, o Order) bool {
//	        return o.Tier == "premium"
//	    },
//	)
func Mutate[T any](name Name, transformer func(context.Context, T) T, condition func(context.Context, T) bool) Processor[T] {
	return Processor[T]{
		name: name,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			if condition(ctx, item) {
				return transformer(ctx, item), true, nil
			}
			return item, true, nil
		},
	}
}
