package pushz

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
	"go.uber.org/zap"
)

// Metric keys for Pipeline observability.
const (
	PipelineRunsTotal      = metricz.Key("pipeline.runs.total")
	PipelineItemsTotal     = metricz.Key("pipeline.items.total")
	PipelineCompletedTotal = metricz.Key("pipeline.completed.total")
	PipelineAbortedTotal   = metricz.Key("pipeline.aborted.total")
	PipelineFailedTotal    = metricz.Key("pipeline.failed.total")
	PipelineDurationMs     = metricz.Key("pipeline.duration.ms")
	PipelineOutputs        = metricz.Key("pipeline.outputs")
)

// Metric keys counted by stages. They land in the registry of the Pipeline
// or Fanout driving the stages.
const (
	StagePathsFinished   = metricz.Key("stage.paths.finished")
	StageSlicesExhausted = metricz.Key("stage.slices.exhausted")
	StageStopsTotal      = metricz.Key("stage.stops.total")
	StageEnrichFailures  = metricz.Key("stage.enrich.failures")
)

// registerStageMetrics creates the stage counters up front so they read zero
// before the first run.
func registerStageMetrics(metrics *metricz.Registry) {
	metrics.Counter(StagePathsFinished)
	metrics.Counter(StageSlicesExhausted)
	metrics.Counter(StageStopsTotal)
	metrics.Counter(StageEnrichFailures)
}

// Span names and tags for Pipeline.
const (
	PipelineRunSpan   = tracez.Key("pipeline.run")
	PipelineCloseSpan = tracez.Key("pipeline.close")

	PipelineTagName    = tracez.Tag("pipeline.name")
	PipelineTagItems   = tracez.Tag("pipeline.items")
	PipelineTagOutcome = tracez.Tag("pipeline.outcome")
	PipelineTagError   = tracez.Tag("pipeline.error")
)

// Hook event keys for Pipeline.
const (
	PipelineEventCompleted = hookz.Key("pipeline.completed")
	PipelineEventAborted   = hookz.Key("pipeline.aborted")
	PipelineEventFailed    = hookz.Key("pipeline.failed")
)

// Run outcomes, as reported in the pipeline.outcome span tag.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeFailed    = "failed"
)

// PipelineEvent describes one finished run.
// It is emitted via hookz when a run completes, is aborted by a stage, or fails.
type PipelineEvent struct {
	Name      Name          // Pipeline name
	Items     int           // Items pulled from the source
	Outputs   int           // Outputs registered by the run
	Aborted   bool          // Whether a stage stopped the pipeline
	Success   bool          // Whether the run returned no error
	Error     error         // Error returned by the run, if any
	Duration  time.Duration // Wall time of the run, on the pipeline clock
	Timestamp time.Time     // When the run finished
}

// Pipeline is a named, reusable pipeline definition with observability.
//
// Every call to Run compiles the stages into fresh nodes, pulls items from
// the source and pushes them through, then closes every stage so that all
// output futures are resolved. Runs are independent: one Pipeline can be run
// any number of times, also concurrently, and no state carries over between
// runs.
//
// The source is pulled lazily and only while the pipeline wants items. Run
// stops pulling when the source is exhausted, when a stage aborts the
// pipeline (Slice with CloseAll, StopWhen), when every path has finished, when
// ctx is done, or when a stage fails. Stages are closed in all of these cases,
// including panics in user code, which are reported as *Error[T] wrapping
// ErrPanic.
//
// # Observability
//
// Metrics:
//   - pipeline.runs.total: Counter of runs started
//   - pipeline.items.total: Counter of items pulled from sources
//   - pipeline.completed.total: Counter of runs that drained their source or finished every path
//   - pipeline.aborted.total: Counter of runs stopped by a stage
//   - pipeline.failed.total: Counter of runs that returned an error
//   - pipeline.duration.ms: Gauge of the last run's duration
//   - pipeline.outputs: Gauge of the outputs registered by the last run
//   - stage.paths.finished: Counter of branch, fork and switch paths that finished their scope
//   - stage.slices.exhausted: Counter of slices that reached the end of their window
//   - stage.stops.total: Counter of StopWhen conditions met
//   - stage.enrich.failures: Counter of enrichments that failed and forwarded the original item
//
// Traces:
//   - pipeline.run: Span for each run
//   - pipeline.close: Child span for closing the compiled stages
//
// Events (via hooks):
//   - pipeline.completed, pipeline.aborted, pipeline.failed
//
// Debug logs are written to the logger set with WithLogger; the default
// logger discards everything.
//
// Example:
//
//	p := pushz.NewPipeline("word-stats",
//	    pushz.FlatMap("words", splitWords),
//	    pushz.NewBranch("first", pushz.Must(pushz.Take[string]("ten", 10)), pushz.Output("first", pushz.ToSlice[string]())),
//	    pushz.Output("count", pushz.Count[string]()),
//	).WithLogger(logger)
//	defer p.Close()
//
//	res, err := p.Run(ctx, pushz.FromSlice(lines))
type Pipeline[T any] struct {
	clock   clockz.Clock
	logger  *zap.Logger
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[PipelineEvent]
	name    Name
	stages  []Stage[T]
	mu      sync.RWMutex
}

// NewPipeline creates a pipeline from stages.
func NewPipeline[T any](name Name, stages ...Stage[T]) *Pipeline[T] {
	metrics := metricz.New()
	metrics.Counter(PipelineRunsTotal)
	metrics.Counter(PipelineItemsTotal)
	metrics.Counter(PipelineCompletedTotal)
	metrics.Counter(PipelineAbortedTotal)
	metrics.Counter(PipelineFailedTotal)
	metrics.Gauge(PipelineDurationMs)
	metrics.Gauge(PipelineOutputs)
	registerStageMetrics(metrics)

	return &Pipeline[T]{
		name:    name,
		stages:  slices.Clone(stages),
		clock:   clockz.RealClock,
		logger:  zap.NewNop(),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[PipelineEvent](),
	}
}

// WithClock sets a custom clock for testing.
func (p *Pipeline[T]) WithClock(clock clockz.Clock) *Pipeline[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
	return p
}

// WithLogger sets the logger receiving debug output from the pipeline and
// its stages.
func (p *Pipeline[T]) WithLogger(logger *zap.Logger) *Pipeline[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	p.logger = logger
	return p
}

// Register appends stages. Runs already in progress are not affected.
func (p *Pipeline[T]) Register(stages ...Stage[T]) *Pipeline[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stages...)
	return p
}

// Len returns the number of top-level stages.
func (p *Pipeline[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stages)
}

// Name returns the name of this pipeline.
func (p *Pipeline[T]) Name() Name {
	return p.name
}

// Compile compiles the pipeline's stages without running them, using the
// pipeline's logger and clock.
func (p *Pipeline[T]) Compile() (*Compiled[T], error) {
	p.mu.RLock()
	b := newBuilder(p.logger, p.clock, p.metrics)
	stages := slices.Clone(p.stages)
	p.mu.RUnlock()
	return compileWith(b, p.name, stages)
}

// Run drives source through the pipeline and returns its outputs.
// Topology errors are returned before any item is pulled. A stage failure
// is returned as an *Error[T] whose Path starts with the pipeline name; the
// Results are still returned, with every output resolved from the items
// seen before the failure.
func (p *Pipeline[T]) Run(ctx context.Context, source iter.Seq[T]) (*Results, error) {
	p.mu.RLock()
	clock := p.clock
	logger := p.logger
	p.mu.RUnlock()

	start := clock.Now()
	p.metrics.Counter(PipelineRunsTotal).Inc()

	ctx, span := p.tracer.StartSpan(ctx, PipelineRunSpan)
	defer span.Finish()
	span.SetTag(PipelineTagName, p.name)

	logger.Debug("pipeline run started", zap.String("pipeline", p.name))

	compiled, err := p.Compile()
	if err != nil {
		p.finish(ctx, span.SetTag, logger, runStats{err: err, duration: clock.Since(start), finished: clock.Now()})
		return nil, err
	}

	stats := drive(ctx, compiled, source, p.name, p.tracer, func() {
		p.metrics.Counter(PipelineItemsTotal).Inc()
	})
	stats.duration = clock.Since(start)
	stats.finished = clock.Now()
	stats.outputs = compiled.Results().Len()
	p.finish(ctx, span.SetTag, logger, stats)
	return compiled.Results(), stats.err
}

type runStats struct {
	finished time.Time
	err      error
	duration time.Duration
	items    int
	outputs  int
	aborted  bool
}

func (p *Pipeline[T]) finish(ctx context.Context, tag func(tracez.Tag, string), logger *zap.Logger, stats runStats) {
	p.metrics.Gauge(PipelineDurationMs).Set(float64(stats.duration.Milliseconds()))
	p.metrics.Gauge(PipelineOutputs).Set(float64(stats.outputs))
	tag(PipelineTagItems, strconv.Itoa(stats.items))

	event := PipelineEvent{
		Name:      p.name,
		Items:     stats.items,
		Outputs:   stats.outputs,
		Aborted:   stats.aborted,
		Success:   stats.err == nil,
		Error:     stats.err,
		Duration:  stats.duration,
		Timestamp: stats.finished,
	}

	switch {
	case stats.err != nil:
		p.metrics.Counter(PipelineFailedTotal).Inc()
		tag(PipelineTagOutcome, OutcomeFailed)
		tag(PipelineTagError, stats.err.Error())
		logger.Debug("pipeline run failed",
			zap.String("pipeline", p.name),
			zap.Int("items", stats.items),
			zap.Error(stats.err),
		)
		_ = p.hooks.Emit(ctx, PipelineEventFailed, event) //nolint:errcheck
	case stats.aborted:
		p.metrics.Counter(PipelineAbortedTotal).Inc()
		tag(PipelineTagOutcome, OutcomeAborted)
		logger.Debug("pipeline run aborted",
			zap.String("pipeline", p.name),
			zap.Int("items", stats.items),
		)
		_ = p.hooks.Emit(ctx, PipelineEventAborted, event) //nolint:errcheck
	default:
		p.metrics.Counter(PipelineCompletedTotal).Inc()
		tag(PipelineTagOutcome, OutcomeCompleted)
		logger.Debug("pipeline run completed",
			zap.String("pipeline", p.name),
			zap.Int("items", stats.items),
			zap.Duration("duration", stats.duration),
		)
		_ = p.hooks.Emit(ctx, PipelineEventCompleted, event) //nolint:errcheck
	}
}

// Metrics returns the metrics registry for this pipeline.
func (p *Pipeline[T]) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns the tracer for this pipeline.
func (p *Pipeline[T]) Tracer() *tracez.Tracer {
	return p.tracer
}

// Close gracefully shuts down observability components.
func (p *Pipeline[T]) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// OnCompleted registers a handler for runs that drained their source or
// finished every path without error.
// The handler is called asynchronously after the run returns.
func (p *Pipeline[T]) OnCompleted(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventCompleted, handler)
	return err
}

// OnAborted registers a handler for runs stopped by a stage.
// The handler is called asynchronously after the run returns.
func (p *Pipeline[T]) OnAborted(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventAborted, handler)
	return err
}

// OnFailed registers a handler for runs that returned an error.
// The handler is called asynchronously after the run returns.
func (p *Pipeline[T]) OnFailed(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventFailed, handler)
	return err
}

// Run compiles stages, drives source through them and closes them, returning
// the outputs. It is the one-shot form of NewPipeline(...).Run without
// observability.
//
// Example:
//
//	res, err := pushz.Run(ctx, pushz.FromSlice([]int{1, 2, 3}),
//	    pushz.Transform("square", func(_ context.Context, n int) int { return n * n }),
//	    pushz.Output("", pushz.Fold(func(acc, n int) int { return acc + n }, 0)),
//	)
//	total, _ := pushz.ValueOf[int](res) // 14
func Run[T any](ctx context.Context, source iter.Seq[T], stages ...Stage[T]) (*Results, error) {
	compiled, err := Compile(stages...)
	if err != nil {
		return nil, err
	}
	stats := drive(ctx, compiled, source, "", nil, nil)
	return compiled.Results(), stats.err
}

// drive pulls source into c and closes c on every exit path.
func drive[T any](ctx context.Context, c *Compiled[T], source iter.Seq[T], name Name, tracer *tracez.Tracer, tick func()) (stats runStats) {
	start := time.Now()
	defer func() {
		if err := closeTraced(ctx, c, tracer); err != nil {
			stats.err = errors.Join(stats.err, prependPath[T](name, err))
		}
		stats.aborted = c.Aborted()
	}()

	items, err := pull(ctx, c, source, start, tick)
	stats.items = items
	if err != nil {
		stats.err = prependPath[T](name, err)
	}
	return stats
}

func closeTraced[T any](ctx context.Context, c *Compiled[T], tracer *tracez.Tracer) error {
	if tracer == nil {
		return c.Close(ctx)
	}
	ctx, span := tracer.StartSpan(ctx, PipelineCloseSpan)
	defer span.Finish()
	return c.Close(ctx)
}

// pull feeds items from source until the source ends, the pipeline stops
// wanting items, or ctx is done.
func pull[T any](ctx context.Context, c *Compiled[T], source iter.Seq[T], start time.Time, tick func()) (items int, err error) {
	var zero T
	defer recoverFromPanic(&err, "source", zero)

	for item := range source {
		if ctx.Err() != nil {
			return items, canceled(ctx, item, start)
		}
		items++
		if tick != nil {
			tick()
		}
		live, perr := c.Push(ctx, item)
		if perr != nil {
			return items, perr
		}
		if !live {
			return items, nil
		}
	}
	if ctx.Err() != nil {
		return items, canceled(ctx, zero, start)
	}
	return items, nil
}

func canceled[T any](ctx context.Context, item T, start time.Time) error {
	err := ctx.Err()
	return &Error[T]{
		Timestamp: time.Now(),
		InputData: item,
		Err:       err,
		Duration:  time.Since(start),
		Timeout:   errors.Is(err, context.DeadlineExceeded),
		Canceled:  errors.Is(err, context.Canceled),
	}
}
