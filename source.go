package pushz

import (
	"context"
	"errors"
	"iter"
	"slices"
)

// FromSlice returns a source yielding the items of s in order.
func FromSlice[T any](s []T) iter.Seq[T] {
	return slices.Values(s)
}

// FromChannel returns a source yielding the values received from ch until it
// is closed or ctx is done.
func FromChannel[T any](ctx context.Context, ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok || !yield(v) {
					return
				}
			}
		}
	}
}

// Counter returns an infinite source start, start+step, start+2*step, ...
// Pair it with Take, StopWhen or a cancellable context.
func Counter(start, step int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for n := start; ; n += step {
			if !yield(n) {
				return
			}
		}
	}
}

// Iterator provides pull-based sequential access to a stream of values.
// Next returns (zero, false, nil) when the stream is exhausted.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// IteratorSource adapts an Iterator into a source. Because a source cannot
// report errors, a failure from Next ends the stream and is kept for Err.
type IteratorSource[T any] struct {
	it  Iterator[T]
	ctx context.Context
	err error
}

// FromIterator wraps it as a source. The iterator is closed when the stream
// ends, whether it was exhausted, failed, or the pipeline stopped pulling.
func FromIterator[T any](ctx context.Context, it Iterator[T]) *IteratorSource[T] {
	return &IteratorSource[T]{it: it, ctx: ctx}
}

// Seq returns the source. It must be consumed at most once.
func (s *IteratorSource[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		defer func() {
			s.err = errors.Join(s.err, s.it.Close())
		}()
		for {
			v, ok, err := s.it.Next(s.ctx)
			if err != nil {
				s.err = err
				return
			}
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Err returns the error that ended the stream, joined with any error from
// closing the iterator.
func (s *IteratorSource[T]) Err() error {
	return s.err
}
