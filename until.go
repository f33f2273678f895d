package pushz

import (
	"context"
)

// Until forwards items until pred returns true for one of them. That item is
// dropped and the stage finishes its scope: the enclosing branch is closed
// while sibling paths keep running. Use StopWhen to stop the whole pipeline
// instead.
func Until[T any](name Name, pred Predicate[T]) Stage[T] {
	return until[T]{name: name, pred: pred}
}

// While forwards items as long as pred returns true. The first item for
// which it returns false is dropped and the stage finishes its scope.
func While[T any](name Name, pred Predicate[T]) Stage[T] {
	return until[T]{name: name, pred: func(ctx context.Context, item T) bool {
		return !pred(ctx, item)
	}}
}

type until[T any] struct {
	pred Predicate[T]
	name Name
}

func (u until[T]) Name() Name {
	return u.name
}

func (u until[T]) compile(_ *builder, next node[T]) (node[T], error) {
	if err := checkOpen(u.name, next); err != nil {
		return nil, err
	}
	n := &untilNode[T]{}
	n.processorNode = processorNode[T]{
		name: u.name,
		next: next,
		fn: func(ctx context.Context, item T) (T, bool, error) {
			if n.finished || u.pred(ctx, item) {
				n.finished = true
				return item, false, errStopBranch
			}
			return item, true, nil
		},
	}
	return n, nil
}

type untilNode[T any] struct {
	processorNode[T]
	finished bool
}
