package pushz

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Compiled is a single-use runnable instance of a pipeline. It is produced by
// Compile and consumed by pushing items into it and closing it once.
//
// Compiled is not safe for concurrent use. Pipelines are driven from one
// goroutine; see Fanout for consuming one source from several goroutines.
type Compiled[T any] struct {
	root    node[T]
	results *Results
	logger  *zap.Logger
	done    bool
	aborted bool
	closed  bool
}

// Compile compiles stages into a fresh runnable instance. Topology errors
// (ErrEmptyChain, ErrIncompletePipe, ErrUnreachableStage, ErrDuplicateOutput,
// ErrNilStage) are reported here, before any item is pushed.
//
// Most callers use Run or Pipeline.Run, which compile, drive and close in one
// step. Compile is for callers that produce items themselves:
//
//	c, err := pushz.Compile(stages...)
//	if err != nil {
//	    return err
//	}
//	defer c.Close(ctx)
//	for msg := range inbox {
//	    live, err := c.Push(ctx, msg)
//	    if err != nil || !live {
//	        break
//	    }
//	}
func Compile[T any](stages ...Stage[T]) (*Compiled[T], error) {
	return compileWith(newBuilder(nil, nil, nil), "", stages)
}

func compileWith[T any](b *builder, name Name, stages []Stage[T]) (*Compiled[T], error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyChain, name)
	}
	root, err := NewChain(name, stages...).compile(b, nil)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates(b.outlets); err != nil {
		return nil, err
	}
	return &Compiled[T]{root: root, results: newResults(b.outlets), logger: b.logger}, nil
}

func checkDuplicates(outlets []outlet) error {
	seen := make(map[Name]struct{}, len(outlets))
	for _, o := range outlets {
		if o.anonymous {
			continue
		}
		if _, ok := seen[o.name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateOutput, o.name)
		}
		seen[o.name] = struct{}{}
	}
	return nil
}

// Push delivers one item. It reports whether the pipeline still wants items:
// live is false once every path has finished or a stage aborted the
// pipeline. A stage failure is returned as an *Error[T]; the pipeline then
// accepts no further items. After the pipeline is done Push is a no-op.
func (c *Compiled[T]) Push(ctx context.Context, item T) (live bool, err error) {
	if c.done || c.closed {
		return false, nil
	}
	err = c.root.push(ctx, item)
	switch {
	case err == nil:
		return true, nil
	case isAbort(err):
		c.done = true
		c.aborted = true
		c.logger.Debug("pipeline aborted")
		return false, nil
	case isStopBranch(err):
		c.done = true
		c.logger.Debug("all paths finished")
		return false, nil
	default:
		c.done = true
		return false, err
	}
}

// Aborted reports whether a stage stopped the whole pipeline.
func (c *Compiled[T]) Aborted() bool {
	return c.aborted
}

// Close closes every stage, resolving all output futures. It runs even if
// ctx is already canceled and is safe to call more than once; only the first
// call has an effect.
func (c *Compiled[T]) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.root.close(context.WithoutCancel(ctx))
}

// Results returns the outputs of this instance. Their values are available
// once Close has returned.
func (c *Compiled[T]) Results() *Results {
	return c.results
}
