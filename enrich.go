package pushz

import (
	"context"

	"go.uber.org/zap"
)

// Enrich creates a stage that attempts to enhance each item with additional information.
// Enrich is unique among stages - if the enrichment fails, it forwards the original
// item unchanged rather than stopping the pipeline. This makes it ideal for optional
// enhancements that improve data quality but aren't critical for processing.
//
// Common enrichment patterns include:
//   - Adding details from a cache or lookup table
//   - Resolving identifiers to display names
//   - Adding computed fields from external data
//
// Use Enrich when the additional data is "nice to have" but not required.
// If the enrichment is mandatory, use Apply instead. Failures are logged at
// debug level on the pipeline's logger (see WithLogger), counted under
// stage.enrich.failures, and otherwise swallowed.
// A panic in fn is not swallowed: it fails the run like in any other stage.
//
// Example:
//
//	addCity := pushz.Enrich("add_city", func(ctx context.Context, r Reading) (Reading, error) {
//	    city, err := geo.Lookup(ctx, r.Lat, r.Lon)
//	    if err != nil {
//	        return r, err
//	    }
//	    r.City = city
//	    return r, nil
//	})
func Enrich[T any](name Name, fn func(context.Context, T) (T, error)) Stage[T] {
	return enricher[T]{name: name, fn: fn}
}

type enricher[T any] struct {
	fn   func(context.Context, T) (T, error)
	name Name
}

func (e enricher[T]) Name() Name {
	return e.name
}

func (e enricher[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkOpen(e.name, next); err != nil {
		return nil, err
	}
	logger, metrics := b.logger, b.metrics
	return &processorNode[T]{
		name: e.name,
		next: next,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			enriched, err := e.fn(ctx, item)
			if err != nil {
				metrics.Counter(StageEnrichFailures).Inc()
				logger.Debug("enrichment failed, forwarding original item",
					zap.String("stage", e.name),
					zap.Error(err),
				)
				return item, true, nil
			}
			return enriched, true, nil
		},
	}, nil
}
