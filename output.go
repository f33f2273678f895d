package pushz

import (
	"context"
	"time"
)

// ReturnName is the key under which anonymous outputs are reported.
// Several anonymous outputs may share it; they are kept in declaration order
// and read with Results.Return.
const ReturnName Name = "return"

// resolver is the type-erased view of a Future used by Results.
type resolver interface {
	settled() (any, error)
}

// outlet is one output registered during compilation.
type outlet struct {
	result    resolver
	name      Name
	anonymous bool
}

// Output creates a terminal stage that feeds every item to a fresh
// Accumulator from c and resolves a future with its result when the stage is
// closed. The result is read from the Results returned by Run under name.
// An empty name creates an anonymous output, reported under ReturnName.
//
// Named outputs must be unique within one compiled pipeline, including the
// outputs of nested chains and branches; a duplicate is rejected with
// ErrDuplicateOutput before any item is pulled.
//
// Example:
//
//	res, err := pushz.Run(ctx, pushz.FromSlice([]int{1, 2, 3}),
//	    pushz.NewBranch("totals", pushz.Output("sum", pushz.Fold(add, 0))),
//	    pushz.Output("max", pushz.Reduce(maxInt)),
//	)
//	sum, _ := pushz.Named[int](res, "sum") // 6
//	largest, _ := pushz.Named[int](res, "max") // 3
func Output[T, R any](name Name, c Collector[T, R]) Stage[T] {
	return output[T, R]{name: name, collector: c}
}

type output[T, R any] struct {
	collector Collector[T, R]
	name      Name
}

// Name returns the output name, or ReturnName for anonymous outputs.
func (o output[T, R]) Name() Name {
	if o.name == "" {
		return ReturnName
	}
	return o.name
}

func (o output[T, R]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkTerminal(o.Name(), next); err != nil {
		return nil, err
	}
	f := newFuture[R]()
	b.register(outlet{name: o.Name(), result: f, anonymous: o.name == ""})
	return &outputNode[T, R]{name: o.Name(), acc: o.collector(), future: f}, nil
}

type outputNode[T, R any] struct {
	acc    Accumulator[T, R]
	future *Future[R]
	name   Name
	closed bool
}

func (n *outputNode[T, R]) push(ctx context.Context, item T) error {
	start := time.Now()
	return stageError(n.name, item, start, n.add(ctx, item))
}

func (n *outputNode[T, R]) add(ctx context.Context, item T) (err error) {
	defer recoverFromPanic(&err, n.name, item)
	return n.acc.Add(ctx, item)
}

// close resolves the future exactly once. An accumulator error resolves the
// future with that error; it does not fail the close.
func (n *outputNode[T, R]) close(context.Context) error {
	if n.closed {
		return nil
	}
	n.closed = true
	value, err := n.result()
	n.future.resolve(value, err)
	return nil
}

func (n *outputNode[T, R]) result() (value R, err error) {
	var zero T
	defer recoverFromPanic(&err, n.name, zero)
	return n.acc.Result()
}
