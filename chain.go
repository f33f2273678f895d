package pushz

import (
	"fmt"
)

// Chain is an ordered composition of stages. Items pushed into a chain pass
// through its stages in declaration order.
//
// A chain whose last stage is terminal (Sink, Output, StopWhen, Fork or
// Switch) can be driven on its own. A chain whose tail is open is a reusable
// building block: embedded in a larger chain, its tail is connected to
// whatever follows it, and driving it on its own fails with
// ErrIncompletePipe.
//
// Chains are immutable. Then returns a new chain, and one chain may be
// embedded in any number of pipelines or driven any number of times; each
// compilation gets fresh state.
//
// Example:
//
//	clean := pushz.NewChain("clean",
//	    pushz.Transform("trim", trim),
//	    pushz.Filter("non-empty", nonEmpty),
//	)
//
//	// Reuse the open chain with two different terminals.
//	count := clean.Then(pushz.Output("", pushz.Count[string]()))
//	store := clean.Then(pushz.Sink("store", store))
type Chain[T any] struct {
	name   Name
	stages []Stage[T]
}

// NewChain creates a chain from stages.
func NewChain[T any](name Name, stages ...Stage[T]) *Chain[T] {
	s := make([]Stage[T], len(stages))
	copy(s, stages)
	return &Chain[T]{name: name, stages: s}
}

// Then returns a new chain with stages appended. The receiver is unchanged.
func (c *Chain[T]) Then(stages ...Stage[T]) *Chain[T] {
	s := make([]Stage[T], 0, len(c.stages)+len(stages))
	s = append(s, c.stages...)
	s = append(s, stages...)
	return &Chain[T]{name: c.name, stages: s}
}

// Name returns the name of this chain.
func (c *Chain[T]) Name() Name {
	return c.name
}

// Len returns the number of stages in the chain.
func (c *Chain[T]) Len() int {
	return len(c.stages)
}

// Names returns the names of the stages in order.
func (c *Chain[T]) Names() []Name {
	names := make([]Name, len(c.stages))
	for i, s := range c.stages {
		if s != nil {
			names[i] = s.Name()
		}
	}
	return names
}

// compile links the stages right-to-left, each node receiving its compiled
// downstream. Every stage compiles in its own scope and the scopes are merged
// back in declaration order, so outputs register left-to-right.
//
// An empty chain with a downstream is the identity. An empty chain at the end
// of a pipeline has nothing to drive.
func (c *Chain[T]) compile(b *builder, next node[T]) (node[T], error) {
	if len(c.stages) == 0 {
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrEmptyChain, c.name)
		}
		return next, nil
	}

	scopes := make([]*builder, len(c.stages))
	current := next
	for i := len(c.stages) - 1; i >= 0; i-- {
		stage := c.stages[i]
		if stage == nil {
			return nil, fmt.Errorf("%w: position %d of %q", ErrNilStage, i, c.name)
		}
		scopes[i] = b.scope()
		compiled, err := stage.compile(scopes[i], current)
		if err != nil {
			return nil, err
		}
		current = compiled
	}

	for _, s := range scopes {
		b.outlets = append(b.outlets, s.outlets...)
	}
	return current, nil
}
