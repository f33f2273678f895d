package pushz

import (
	"context"
	"time"
)

// FlatMap creates a stage that expands each item into zero or more items.
// The returned items are forwarded downstream in slice order before the next
// input item is processed. An empty or nil slice drops the input.
//
// If the downstream reports that it is finished while a batch is being
// forwarded, the rest of the batch is discarded.
//
// Example:
//
//	words := pushz.FlatMap("words", func(_ context.Context, line string) []string {
//	    return strings.Fields(line)
//	})
func FlatMap[T any](name Name, fn func(context.Context, T) []T) Stage[T] {
	return flatMap[T]{name: name, fn: fn}
}

type flatMap[T any] struct {
	fn   func(context.Context, T) []T
	name Name
}

func (f flatMap[T]) Name() Name {
	return f.name
}

func (f flatMap[T]) compile(_ *builder, next node[T]) (node[T], error) {
	if err := checkOpen(f.name, next); err != nil {
		return nil, err
	}
	return &flatMapNode[T]{name: f.name, fn: f.fn, next: next}, nil
}

type flatMapNode[T any] struct {
	next node[T]
	fn   func(context.Context, T) []T
	name Name
}

func (n *flatMapNode[T]) push(ctx context.Context, item T) error {
	start := time.Now()
	items, err := n.expand(ctx, item)
	if err != nil {
		return stageError(n.name, item, start, err)
	}
	for _, out := range items {
		if err := n.next.push(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (n *flatMapNode[T]) expand(ctx context.Context, item T) (items []T, err error) {
	defer recoverFromPanic(&err, n.name, item)
	return n.fn(ctx, item), nil
}

func (n *flatMapNode[T]) close(ctx context.Context) error {
	return n.next.close(ctx)
}
