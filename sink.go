package pushz

import (
	"context"
	"time"
)

// Sink creates a terminal stage that hands every item to fn.
// A Sink ends a chain: any stage placed after it is rejected with
// ErrUnreachableStage when the chain is compiled.
//
// An error returned by fn stops the pipeline and is reported by Run wrapped
// in an *Error[T].
//
// Example:
//
//	var got []int
//	collect := pushz.Sink("collect", func(_ context.Context, n int) error {
//	    got = append(got, n)
//	    return nil
//	})
func Sink[T any](name Name, fn func(context.Context, T) error) Stage[T] {
	return sink[T]{name: name, fn: fn}
}

type sink[T any] struct {
	fn   func(context.Context, T) error
	name Name
}

func (s sink[T]) Name() Name {
	return s.name
}

func (s sink[T]) compile(_ *builder, next node[T]) (node[T], error) {
	if err := checkTerminal(s.name, next); err != nil {
		return nil, err
	}
	return &sinkNode[T]{name: s.name, fn: s.fn}, nil
}

type sinkNode[T any] struct {
	fn   func(context.Context, T) error
	name Name
}

func (n *sinkNode[T]) push(ctx context.Context, item T) error {
	start := time.Now()
	return stageError(n.name, item, start, n.call(ctx, item))
}

func (n *sinkNode[T]) call(ctx context.Context, item T) (err error) {
	defer recoverFromPanic(&err, n.name, item)
	return n.fn(ctx, item)
}

func (*sinkNode[T]) close(context.Context) error {
	return nil
}
