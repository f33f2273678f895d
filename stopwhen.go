package pushz

import (
	"context"
	"time"

	"github.com/zoobzio/metricz"
	"go.uber.org/zap"
)

// StopWhen creates a terminal stage that watches the stream and aborts the
// whole pipeline the first time pred returns true. It forwards nothing, so it
// is normally placed inside a NewBranch or NewFork next to the real work:
//
//	res, err := pushz.Run(ctx, pushz.Counter(0, 2),
//	    pushz.NewBranch("limit", pushz.StopWhen("limit", func(_ context.Context, n int) bool {
//	        return n >= 10
//	    })),
//	    pushz.Output("", pushz.Count[int]()),
//	)
//	// counts 0, 2, 4, 6 and 8
//
// Because the branch's side chain runs before the main path, the item that
// trips the predicate is not delivered to stages after the branch.
func StopWhen[T any](name Name, pred Predicate[T]) Stage[T] {
	return stopWhen[T]{name: name, newPred: func(*builder) Predicate[T] { return pred }}
}

// StopWhenFunc is StopWhen with a stateful predicate. newPred is called once
// per compilation, so the state it captures starts fresh on every run.
//
//	pushz.StopWhenFunc("first-repeat", func() pushz.Predicate[string] {
//	    seen := map[string]bool{}
//	    return func(_ context.Context, s string) bool {
//	        if seen[s] {
//	            return true
//	        }
//	        seen[s] = true
//	        return false
//	    }
//	})
func StopWhenFunc[T any](name Name, newPred func() Predicate[T]) Stage[T] {
	return stopWhen[T]{name: name, newPred: func(*builder) Predicate[T] { return newPred() }}
}

// StopAfter aborts the pipeline when item n+1 arrives, so exactly n items
// pass the stages that follow the enclosing branch.
func StopAfter[T any](name Name, n int) Stage[T] {
	return stopWhen[T]{name: name, newPred: func(*builder) Predicate[T] {
		seen := 0
		return func(context.Context, T) bool {
			seen++
			return seen > n
		}
	}}
}

// StopAfterDuration aborts the pipeline on the first item arriving d or more
// after the pipeline was compiled. Time is read from the pipeline's clock
// (see WithClock), which makes the stage testable with a fake clock.
func StopAfterDuration[T any](name Name, d time.Duration) Stage[T] {
	return stopWhen[T]{name: name, newPred: func(b *builder) Predicate[T] {
		clock := b.clock
		start := clock.Now()
		return func(context.Context, T) bool {
			return clock.Since(start) >= d
		}
	}}
}

type stopWhen[T any] struct {
	newPred func(*builder) Predicate[T]
	name    Name
}

func (s stopWhen[T]) Name() Name {
	return s.name
}

func (s stopWhen[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkTerminal(s.name, next); err != nil {
		return nil, err
	}
	return &stopWhenNode[T]{name: s.name, pred: s.newPred(b), logger: b.logger, metrics: b.metrics}, nil
}

type stopWhenNode[T any] struct {
	pred    Predicate[T]
	logger  *zap.Logger
	metrics *metricz.Registry
	name    Name
}

func (n *stopWhenNode[T]) push(ctx context.Context, item T) error {
	start := time.Now()
	stop, err := n.test(ctx, item)
	if err != nil {
		return stageError(n.name, item, start, err)
	}
	if stop {
		n.metrics.Counter(StageStopsTotal).Inc()
		n.logger.Debug("stop condition met", zap.String("stage", n.name))
		return errStopPipeline
	}
	return nil
}

func (n *stopWhenNode[T]) test(ctx context.Context, item T) (stop bool, err error) {
	defer recoverFromPanic(&err, n.name, item)
	return n.pred(ctx, item), nil
}

func (*stopWhenNode[T]) close(context.Context) error {
	return nil
}
