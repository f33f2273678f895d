package pushz

import (
	"context"
)

// Apply creates a Processor from a function that transforms an item and may fail.
// Use it when the transformation can fail due to validation, parsing or
// business rule violations.
//
// A returned error is not recovered by the pipeline: it stops the driver, the
// stages already compiled are closed, and Run returns the error wrapped in an
// *Error[T] carrying the stage name and the offending item.
//
// For pure transformations that can't fail, use Transform.
// For operations that should continue on failure, use Enrich.
//
// Example:
//
//	parse := pushz.Apply("parse", func(_ context.Context, r Record) (Record, error) {
//	    n, err := strconv.Atoi(r.Raw)
//	    if err != nil {
//	        return r, fmt.Errorf("invalid count: %w", err)
//	    }
//	    r.Count = n
//	    return r, nil
//	})
func Apply[T any](name Name, fn func(context.Context, T) (T, error)) Processor[T] {
	return Processor[T]{
		name: name,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			result, err := fn(ctx, item)
			if err != nil {
				return item, false, err
			}
			return result, true, nil
		},
	}
}
