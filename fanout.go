package pushz

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Metric keys for Fanout observability.
const (
	FanoutRunsTotal  = metricz.Key("fanout.runs.total")
	FanoutItemsTotal = metricz.Key("fanout.items.total")
	FanoutConsumers  = metricz.Key("fanout.consumers")
)

// Fanout traverses one source once and feeds every item to several consumer
// chains, each running on its own goroutine behind a bounded queue.
//
// Each consumer must end in a terminal stage and is compiled on its own, so
// output names only need to be unique within a consumer. Every consumer
// sees items in source order. A consumer that finishes its scope stops
// receiving items while the others continue; a consumer that aborts (Slice
// with CloseAll, StopWhen) stops the whole fan-out, as does a failure. How
// far the other consumers got at that point depends on scheduling.
//
// The source is pulled on the calling goroutine and blocks when a live
// consumer's queue is full.
//
// Example:
//
//	f := pushz.NewFanout("stats", 64,
//	    pushz.Output("sum", pushz.Fold(add, 0)),
//	    pushz.Output("max", pushz.Reduce(maxInt)),
//	)
//	results, err := f.Run(ctx, pushz.FromSlice(values))
//	sum, _ := pushz.Named[int](results[0], "sum")
type Fanout[T any] struct {
	clock     clockz.Clock
	logger    *zap.Logger
	metrics   *metricz.Registry
	name      Name
	consumers []Stage[T]
	buffer    int
	mu        sync.RWMutex
}

// NewFanout creates a fan-out with a queue of buffer items per consumer.
// A buffer below 1 is treated as 1.
func NewFanout[T any](name Name, buffer int, consumers ...Stage[T]) *Fanout[T] {
	metrics := metricz.New()
	metrics.Counter(FanoutRunsTotal)
	metrics.Counter(FanoutItemsTotal)
	metrics.Gauge(FanoutConsumers)
	registerStageMetrics(metrics)

	if buffer < 1 {
		buffer = 1
	}
	return &Fanout[T]{
		name:      name,
		buffer:    buffer,
		consumers: slices.Clone(consumers),
		clock:     clockz.RealClock,
		logger:    zap.NewNop(),
		metrics:   metrics,
	}
}

// WithClock sets a custom clock for testing. Consumers read time from it,
// for example in StopAfterDuration.
func (f *Fanout[T]) WithClock(clock clockz.Clock) *Fanout[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = clock
	return f
}

// WithLogger sets the logger receiving debug output from the fan-out and
// its consumers.
func (f *Fanout[T]) WithLogger(logger *zap.Logger) *Fanout[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	f.logger = logger
	return f
}

// Name returns the name of this fan-out.
func (f *Fanout[T]) Name() Name {
	return f.name
}

// Metrics returns the metrics registry for this fan-out.
func (f *Fanout[T]) Metrics() *metricz.Registry {
	return f.metrics
}

// Run drives source through every consumer and returns their Results in
// declaration order. Topology errors in any consumer are returned before the
// source is touched. All consumer goroutines have exited when Run returns.
func (f *Fanout[T]) Run(ctx context.Context, source iter.Seq[T]) ([]*Results, error) {
	f.mu.RLock()
	logger := f.logger
	clock := f.clock
	consumers := slices.Clone(f.consumers)
	f.mu.RUnlock()

	if len(consumers) == 0 {
		return nil, incomplete(f.name)
	}

	compiled := make([]*Compiled[T], len(consumers))
	for i, c := range consumers {
		var err error
		compiled[i], err = compileWith(newBuilder(logger, clock, f.metrics), f.name, []Stage[T]{c})
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	f.metrics.Counter(FanoutRunsTotal).Inc()
	f.metrics.Gauge(FanoutConsumers).Set(float64(len(compiled)))

	var (
		stop     = make(chan struct{})
		stopOnce sync.Once
		feeds    = make([]chan T, len(compiled))
		done     = make([]chan struct{}, len(compiled))
	)
	abort := func() {
		stopOnce.Do(func() { close(stop) })
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range compiled {
		feeds[i] = make(chan T, f.buffer)
		done[i] = make(chan struct{})
		feed, finished := feeds[i], done[i]
		g.Go(func() error {
			defer close(finished)
			return consume(gctx, c, feed, stop, abort)
		})
	}

	err := f.produce(gctx, source, feeds, done, stop)
	for _, feed := range feeds {
		close(feed)
	}
	if werr := g.Wait(); werr != nil {
		err = werr
	} else if err == nil && ctx.Err() != nil {
		var zero T
		err = canceled(ctx, zero, start)
	}

	results := make([]*Results, len(compiled))
	var errs []error
	if err != nil {
		errs = append(errs, prependPath[T](f.name, err))
	}
	for i, c := range compiled {
		if cerr := c.Close(ctx); cerr != nil {
			errs = append(errs, prependPath[T](f.name, cerr))
		}
		results[i] = c.Results()
	}
	logger.Debug("fanout finished", zap.String("fanout", f.name), zap.Int("consumers", len(compiled)))
	return results, errors.Join(errs...)
}

// produce pulls source and hands each item to every live consumer in
// declaration order. It returns when the source ends, every consumer has
// finished, a consumer aborted, or ctx is done.
func (f *Fanout[T]) produce(ctx context.Context, source iter.Seq[T], feeds []chan T, done []chan struct{}, stop <-chan struct{}) (err error) {
	var zero T
	defer recoverFromPanic(&err, "source", zero)

	finished := make([]bool, len(feeds))
	for item := range source {
		f.metrics.Counter(FanoutItemsTotal).Inc()
		live := 0
		for i, feed := range feeds {
			if finished[i] {
				continue
			}
			select {
			case <-done[i]:
				finished[i] = true
				continue
			default:
			}
			select {
			case feed <- item:
				live++
			case <-done[i]:
				finished[i] = true
			case <-stop:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
		if live == 0 {
			return nil
		}
	}
	return nil
}

// consume pushes items from feed into c until the feed is closed, the
// consumer finishes, or the fan-out stops.
func consume[T any](ctx context.Context, c *Compiled[T], feed <-chan T, stop <-chan struct{}, abort func()) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return nil
		case item, ok := <-feed:
			if !ok {
				return nil
			}
			live, err := c.Push(ctx, item)
			if err != nil {
				abort()
				return err
			}
			if !live {
				if c.Aborted() {
					abort()
				}
				return nil
			}
		}
	}
}
