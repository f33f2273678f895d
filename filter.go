package pushz

import (
	"context"
	"sync/atomic"
)

// Predicate is a test applied to each item. It is a distinct type so that
// Decode can tell a filter apart from a transform or a sink when stages are
// given as plain values.
type Predicate[T any] func(context.Context, T) bool

// Filter creates a Processor that forwards only the items for which the
// predicate returns true. Rejected items are dropped silently; they are not
// errors and do not stop the pipeline.
//
// Filter is equivalent to the standard filter of the input by pred: the
// forwarded items keep their arrival order.
//
// Example:
//
//	evens := pushz.Filter("evens", func(_ context.Context, n int) bool {
//	    return n%2 == 0
//	})
func Filter[T any](name Name, pred Predicate[T]) Processor[T] {
	return Processor[T]{
		name: name,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			return item, pred(ctx, item), nil
		},
	}
}

// Tally is the result of a CountFilter: how many items passed and how many
// were rejected during one run.
type Tally struct {
	Passed int
	Failed int
}

// Total returns the number of items the filter evaluated.
func (t Tally) Total() int {
	return t.Passed + t.Failed
}

// CountFilter behaves like Filter and additionally registers a named output
// holding the Tally of its decisions. The tally is resolved when the filter
// is closed, and is read from Results like any other output:
//
//	valid := pushz.CountFilter("valid", isValid)
//	res, _ := pushz.Run(ctx, src, valid, pushz.Sink("store", store))
//	tally, _ := pushz.Named[pushz.Tally](res, "valid")
func CountFilter[T any](name Name, pred Predicate[T]) Stage[T] {
	return countFilter[T]{name: name, pred: pred}
}

type countFilter[T any] struct {
	pred Predicate[T]
	name Name
}

func (c countFilter[T]) Name() Name {
	return c.name
}

func (c countFilter[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkOpen(c.name, next); err != nil {
		return nil, err
	}
	f := newFuture[Tally]()
	b.register(outlet{name: c.name, result: f})
	n := &countFilterNode[T]{future: f}
	n.processorNode = processorNode[T]{
		name: c.name,
		next: next,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			if c.pred(ctx, item) {
				n.passed.Add(1)
				return item, true, nil
			}
			n.failed.Add(1)
			return item, false, nil
		},
	}
	return n, nil
}

type countFilterNode[T any] struct {
	future *Future[Tally]
	processorNode[T]
	passed atomic.Int64
	failed atomic.Int64
	closed bool
}

func (n *countFilterNode[T]) close(ctx context.Context) error {
	if !n.closed {
		n.closed = true
		n.future.resolve(Tally{Passed: int(n.passed.Load()), Failed: int(n.failed.Load())}, nil)
	}
	return n.next.close(ctx)
}
