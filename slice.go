package pushz

import (
	"context"
	"fmt"
	"math"

	"github.com/zoobzio/metricz"
	"go.uber.org/zap"
)

// Unbounded is the stop value of a Slice with no upper bound.
const Unbounded = math.MaxInt

// SliceOption configures a Slice, Take or Drop stage.
type SliceOption func(*sliceConfig)

type sliceConfig struct {
	closeAll bool
}

// CloseAll makes the slice stop the whole pipeline, not just its enclosing
// branch, once its window is exhausted. The abort is raised by the first
// item past the window, so the item that completes the window still reaches
// every sibling path.
func CloseAll() SliceOption {
	return func(c *sliceConfig) {
		c.closeAll = true
	}
}

// Slice creates a stage forwarding the items whose 0-based arrival position
// is selected by start:stop:step, with the same selection rule as slicing a
// Go slice with a stride. Use Unbounded for an open stop.
//
// Once the window is exhausted the slice finishes its scope: by default only
// the innermost enclosing branch (or, at the top level, the pipeline's last
// live path) is closed, and sibling paths keep running. With CloseAll the
// whole pipeline is stopped instead.
//
// A negative start or stop, or a step below 1, is rejected with
// ErrInvalidSlice.
//
// Example:
//
//	// Every third item among positions 10 to 99.
//	sample, err := pushz.Slice[Reading]("sample", 10, 100, 3)
func Slice[T any](name Name, start, stop, step int, opts ...SliceOption) (Stage[T], error) {
	if start < 0 || stop < 0 || step <= 0 {
		return nil, fmt.Errorf("%w: %q [%d:%d:%d]", ErrInvalidSlice, name, start, stop, step)
	}
	cfg := sliceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return slice[T]{name: name, start: start, stop: stop, step: step, closeAll: cfg.closeAll}, nil
}

// Take creates a Slice forwarding the first n items.
func Take[T any](name Name, n int, opts ...SliceOption) (Stage[T], error) {
	return Slice[T](name, 0, n, 1, opts...)
}

// Drop creates a Slice discarding the first n items and forwarding the rest.
func Drop[T any](name Name, n int, opts ...SliceOption) (Stage[T], error) {
	return Slice[T](name, n, Unbounded, 1, opts...)
}

// Must unwraps the result of a stage constructor that can fail, panicking on
// error. It is intended for stages built from constant arguments.
//
//	first := pushz.Must(pushz.Take[int]("first", 10))
func Must[T any](stage Stage[T], err error) Stage[T] {
	if err != nil {
		panic(err)
	}
	return stage
}

type slice[T any] struct {
	name     Name
	start    int
	stop     int
	step     int
	closeAll bool
}

func (s slice[T]) Name() Name {
	return s.name
}

func (s slice[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkOpen(s.name, next); err != nil {
		return nil, err
	}
	return &sliceNode[T]{slice: s, next: next, logger: b.logger, metrics: b.metrics}, nil
}

type sliceNode[T any] struct {
	next    node[T]
	logger  *zap.Logger
	metrics *metricz.Registry
	slice[T]
	pos      int
	finished bool
}

func (n *sliceNode[T]) push(ctx context.Context, item T) error {
	if n.finished {
		return errStopBranch
	}
	i := n.pos
	n.pos++

	if i >= n.stop {
		return n.exhausted(i)
	}

	if i >= n.start && (i-n.start)%n.step == 0 {
		if err := n.next.push(ctx, item); err != nil {
			return err
		}
	}

	if !n.closeAll && n.complete(i) {
		return n.exhausted(i)
	}
	return nil
}

// complete reports whether no position after i can be selected.
func (n *sliceNode[T]) complete(i int) bool {
	if n.stop == Unbounded {
		return false
	}
	if i < n.start {
		return n.start >= n.stop
	}
	remaining := n.step - (i-n.start)%n.step
	return n.stop-i <= remaining
}

func (n *sliceNode[T]) exhausted(i int) error {
	n.metrics.Counter(StageSlicesExhausted).Inc()
	n.logger.Debug("slice window exhausted",
		zap.String("stage", n.name),
		zap.Int("position", i),
		zap.Bool("close_all", n.closeAll),
	)
	if n.closeAll {
		return errStopPipeline
	}
	n.finished = true
	return errStopBranch
}

func (n *sliceNode[T]) close(ctx context.Context) error {
	return n.next.close(ctx)
}
