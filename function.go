package pushz

import (
	"context"
	"slices"
)

// Function is a compiled open chain used as a function: each Call pushes one
// item and returns the items that came out of the end of the chain.
// Outputs inside the chain (for example in a branch) accumulate across calls
// and are resolved by Close.
//
// A Function is single-use and not safe for concurrent use.
type Function[T any] struct {
	compiled *Compiled[T]
	out      *[]T
}

// Func compiles stages, which must leave the chain open, into a Function.
//
// Example:
//
//	normalize, err := pushz.Func(
//	    pushz.Transform("trim", trim),
//	    pushz.Filter("non-empty", nonEmpty),
//	    pushz.FlatMap("words", strings.Fields),
//	)
//	words, err := normalize.Call(ctx, "  hello  world ") // ["hello" "world"]
func Func[T any](stages ...Stage[T]) (*Function[T], error) {
	out := new([]T)
	all := append(slices.Clone(stages), capture[T]{out: out})
	compiled, err := Compile(all...)
	if err != nil {
		return nil, err
	}
	return &Function[T]{compiled: compiled, out: out}, nil
}

// Call pushes item and returns the items that reached the end of the chain,
// in order. Once every path of the chain has finished, Call returns nothing.
func (f *Function[T]) Call(ctx context.Context, item T) ([]T, error) {
	*f.out = (*f.out)[:0]
	_, err := f.compiled.Push(ctx, item)
	return slices.Clone(*f.out), err
}

// Done reports whether the chain accepts no further items.
func (f *Function[T]) Done() bool {
	return f.compiled.done || f.compiled.closed
}

// Close closes the chain and resolves its outputs.
func (f *Function[T]) Close(ctx context.Context) error {
	return f.compiled.Close(ctx)
}

// Results returns the outputs registered inside the chain.
func (f *Function[T]) Results() *Results {
	return f.compiled.Results()
}

// capture is the terminal Func appends to collect what leaves the chain.
type capture[T any] struct {
	out *[]T
}

func (capture[T]) Name() Name {
	return "capture"
}

func (c capture[T]) compile(_ *builder, next node[T]) (node[T], error) {
	if err := checkTerminal[T]("capture", next); err != nil {
		return nil, err
	}
	return &captureNode[T]{out: c.out}, nil
}

type captureNode[T any] struct {
	out *[]T
}

func (n *captureNode[T]) push(_ context.Context, item T) error {
	*n.out = append(*n.out, item)
	return nil
}

func (*captureNode[T]) close(context.Context) error {
	return nil
}
