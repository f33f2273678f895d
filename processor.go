package pushz

import (
	"context"
	"time"
)

// Processor is a named pass-through stage built from a user function by one
// of the adapters (Transform, Apply, Filter, Effect, Mutate). For each item
// the function returns the item to forward, whether to forward it at all, and
// an error that stops the pipeline.
//
// Processor is a value type: it holds only the function and its name, so one
// Processor can appear in any number of chains.
type Processor[T any] struct {
	fn   func(context.Context, T) (T, bool, error)
	name Name
}

// Name returns the name of the processor for debugging and error reporting.
func (p Processor[T]) Name() Name {
	return p.name
}

func (p Processor[T]) compile(_ *builder, next node[T]) (node[T], error) {
	if err := checkOpen(p.name, next); err != nil {
		return nil, err
	}
	return &processorNode[T]{name: p.name, fn: p.fn, next: next}, nil
}

type processorNode[T any] struct {
	next node[T]
	fn   func(context.Context, T) (T, bool, error)
	name Name
}

func (n *processorNode[T]) push(ctx context.Context, item T) error {
	start := time.Now()
	out, forward, err := n.call(ctx, item)
	if err != nil {
		return stageError(n.name, item, start, err)
	}
	if !forward {
		return nil
	}
	return n.next.push(ctx, out)
}

func (n *processorNode[T]) call(ctx context.Context, item T) (out T, forward bool, err error) {
	defer recoverFromPanic(&err, n.name, item)
	return n.fn(ctx, item)
}

func (n *processorNode[T]) close(ctx context.Context) error {
	return n.next.close(ctx)
}
