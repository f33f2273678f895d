package pushz

import (
	"context"
	"sync/atomic"
)

// Future is a single-assignment cell holding the deferred result of an Output.
// It is resolved exactly once, when the Output that owns it is closed. Until
// then Await blocks and Result reports ErrUnresolved.
//
// Futures are created fresh for every compilation, so results of one run
// never leak into another.
type Future[R any] struct {
	value    R
	err      error
	done     chan struct{}
	resolved atomic.Bool
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// resolve stores the result and wakes every waiter. Resolving twice is a
// programming error and panics.
func (f *Future[R]) resolve(value R, err error) {
	if !f.resolved.CompareAndSwap(false, true) {
		panic("pushz: future resolved twice")
	}
	f.value = value
	f.err = err
	close(f.done)
}

// Await blocks until the future is resolved or ctx is done.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Result returns the resolved value without blocking. Before resolution it
// returns ErrUnresolved.
func (f *Future[R]) Result() (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero R
		return zero, ErrUnresolved
	}
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[R]) settled() (any, error) {
	return f.Result()
}
