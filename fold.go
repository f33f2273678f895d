package pushz

import (
	"context"
)

// Accumulator consumes the items reaching an Output and produces its result.
// Add is called once per item, in arrival order. Result is called exactly
// once, when the Output is closed; the value and error it returns resolve
// the Output's future.
type Accumulator[T, R any] interface {
	Add(ctx context.Context, item T) error
	Result() (R, error)
}

// Collector creates a fresh Accumulator. An Output calls it once per
// compilation, so a Collector can be shared by any number of pipelines and
// runs without sharing state.
type Collector[T, R any] func() Accumulator[T, R]

// Into adapts a custom Accumulator constructor into a Collector.
//
// Example:
//
//	type histogram struct{ buckets map[string]int }
//
//	func (h *histogram) Add(_ context.Context, w string) error { h.buckets[w]++; return nil }
//	func (h *histogram) Result() (map[string]int, error)       { return h.buckets, nil }
//
//	freq := pushz.Output("freq", pushz.Into(func() pushz.Accumulator[string, map[string]int] {
//	    return &histogram{buckets: map[string]int{}}
//	}))
func Into[T, R any](newAccumulator func() Accumulator[T, R]) Collector[T, R] {
	return newAccumulator
}

// Fold creates a Collector that left-folds the stream with fn, starting from
// initial. With zero items the result is initial unchanged.
//
// Example:
//
//	sum := pushz.Output("sum", pushz.Fold(func(acc, n int) int { return acc + n }, 0))
func Fold[T, R any](fn func(R, T) R, initial R) Collector[T, R] {
	return func() Accumulator[T, R] {
		return &foldAccumulator[T, R]{fn: fn, acc: initial}
	}
}

type foldAccumulator[T, R any] struct {
	fn  func(R, T) R
	acc R
}

func (a *foldAccumulator[T, R]) Add(_ context.Context, item T) error {
	a.acc = a.fn(a.acc, item)
	return nil
}

func (a *foldAccumulator[T, R]) Result() (R, error) {
	return a.acc, nil
}

// Reduce creates a Collector that folds the stream with fn, seeding the
// accumulator from the first item. If the stream closes without a single
// item, the output's future resolves with ErrEmptyStream; the run itself
// still succeeds.
//
// Example:
//
//	largest := pushz.Output("max", pushz.Reduce(func(a, b int) int { return max(a, b) }))
func Reduce[T any](fn func(T, T) T) Collector[T, T] {
	return func() Accumulator[T, T] {
		return &reduceAccumulator[T]{fn: fn}
	}
}

type reduceAccumulator[T any] struct {
	fn     func(T, T) T
	acc    T
	seeded bool
}

func (a *reduceAccumulator[T]) Add(_ context.Context, item T) error {
	if !a.seeded {
		a.acc = item
		a.seeded = true
		return nil
	}
	a.acc = a.fn(a.acc, item)
	return nil
}

func (a *reduceAccumulator[T]) Result() (T, error) {
	if !a.seeded {
		var zero T
		return zero, ErrEmptyStream
	}
	return a.acc, nil
}

// ToSlice creates a Collector that gathers every item in arrival order.
// With zero items the result is an empty, non-nil slice.
func ToSlice[T any]() Collector[T, []T] {
	return Fold(func(acc []T, item T) []T { return append(acc, item) }, []T{})
}

// Count creates a Collector that counts the items it receives.
func Count[T any]() Collector[T, int] {
	return Fold(func(n int, _ T) int { return n + 1 }, 0)
}
