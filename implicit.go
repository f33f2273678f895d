package pushz

import (
	"context"
	"fmt"
)

// List is a set of components that Decode turns into a branch.
type List []any

// Group is a set of components that Decode turns into a nested chain.
type Group []any

// Default names of the stages Decode creates.
const (
	BranchName    Name = "branch"
	ChainName     Name = "chain"
	TransformName Name = "transform"
	FilterName    Name = "filter"
	SinkName      Name = "sink"
)

// Decode interprets a plain value as a stage. The conversions are tried in
// this order:
//
//   - a Stage[T] is used as is
//   - a List becomes a NewBranch of its decoded elements; an open list
//     collects into an anonymous output
//   - a Group becomes a NewChain of its decoded elements
//   - a Predicate[T] becomes a Filter
//   - a func(T) T or func(context.Context, T) T becomes a Transform
//   - a func(T) becomes a Sink
//
// Anything else is rejected with ErrUnknownComponent. Note that a plain
// func(context.Context, T) bool is not a Predicate[T]; convert it explicitly.
func Decode[T any](component any) (Stage[T], error) {
	switch c := component.(type) {
	case nil:
		return nil, ErrNilStage
	case Stage[T]:
		return c, nil
	case List:
		stages, err := decodeAll[T](c)
		if err != nil {
			return nil, err
		}
		return NewBranch(BranchName, stages...), nil
	case Group:
		stages, err := decodeAll[T](c)
		if err != nil {
			return nil, err
		}
		return NewChain(ChainName, stages...), nil
	case Predicate[T]:
		return Filter(FilterName, c), nil
	case func(T) T:
		return Transform(TransformName, func(_ context.Context, item T) T { return c(item) }), nil
	case func(context.Context, T) T:
		return Transform(TransformName, c), nil
	case func(T):
		return Sink(SinkName, func(_ context.Context, item T) error {
			c(item)
			return nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownComponent, component)
	}
}

// Compose builds a chain from plain values, interpreting each with Decode.
//
// Example:
//
//	var got []int
//	c, err := pushz.Compose[int]("evens-doubled",
//	    pushz.Predicate[int](func(_ context.Context, n int) bool { return n%2 == 0 }),
//	    func(n int) int { return n * 2 },
//	    pushz.List{func(n int) { got = append(got, n) }},
//	    pushz.Output("", pushz.ToSlice[int]()),
//	)
func Compose[T any](name Name, components ...any) (*Chain[T], error) {
	stages, err := decodeAll[T](components)
	if err != nil {
		return nil, err
	}
	return NewChain(name, stages...), nil
}

func decodeAll[T any](components []any) ([]Stage[T], error) {
	stages := make([]Stage[T], 0, len(components))
	for i, c := range components {
		s, err := Decode[T](c)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}
