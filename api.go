package pushz

import (
	"context"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"go.uber.org/zap"
)

// Name is a type alias for stage, chain and output names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    ParseName  pushz.Name = "parse"
//	    TotalsName pushz.Name = "totals"
//	)
//
//	parse := pushz.Transform(ParseName, parseLine)
//	totals := pushz.Output(TotalsName, pushz.Fold(addLine, Totals{}))
type Name = string

// Stage is a declarative, reusable pipeline component operating on items of type T.
//
// A Stage never holds runtime state. Every time a pipeline is driven, its
// stages are compiled into fresh single-use nodes, which is what makes one
// descriptor safe to embed in several chains or to run many times.
//
// Stages are created with the constructors in this package (Transform,
// Filter, Sink, Output, Slice, NewBranch, NewChain, ...).
type Stage[T any] interface {
	Name() Name
	compile(b *builder, next node[T]) (node[T], error)
}

// node is one compiled stage instance. push delivers a single item and
// returns nil, a control signal (see signals.go), or a failure. close
// finalizes the node and everything it owns downstream; it must be safe
// to call more than once.
type node[T any] interface {
	push(ctx context.Context, item T) error
	close(ctx context.Context) error
}

// builder carries per-compilation state: the collaborators injected by the
// driver and the outputs registered while compiling.
type builder struct {
	logger  *zap.Logger
	clock   clockz.Clock
	metrics *metricz.Registry
	outlets []outlet
}

// newBuilder fills in defaults for missing collaborators. Without a registry
// the stage counters go to a throwaway one.
func newBuilder(logger *zap.Logger, clock clockz.Clock, metrics *metricz.Registry) *builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	if metrics == nil {
		metrics = metricz.New()
	}
	return &builder{logger: logger, clock: clock, metrics: metrics}
}

// scope returns a child builder sharing collaborators but collecting its own
// outlets, so callers compiling right-to-left can re-order registrations.
func (b *builder) scope() *builder {
	return &builder{logger: b.logger, clock: b.clock, metrics: b.metrics}
}

func (b *builder) register(o outlet) {
	b.outlets = append(b.outlets, o)
}

// checkTerminal rejects a downstream for stages that must end a chain.
func checkTerminal[T any](name Name, next node[T]) error {
	if next != nil {
		return unreachable(name)
	}
	return nil
}

// checkOpen rejects a missing downstream for stages that forward items.
func checkOpen[T any](name Name, next node[T]) error {
	if next == nil {
		return incomplete(name)
	}
	return nil
}
