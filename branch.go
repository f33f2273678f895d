package pushz

import (
	"context"
	"errors"

	"github.com/zoobzio/metricz"
	"go.uber.org/zap"
)

// NewBranch creates a stage that duplicates the stream. Every item is first
// delivered to the side chain built from stages, then forwarded unchanged to
// the stages that follow the branch (the main path).
//
// The side chain is compiled as a complete chain of its own. If it does not
// end in a terminal stage, an anonymous Output(ReturnName, ToSlice) is
// appended to it, so an open side chain adds one return value to the
// Results. Its outputs are merged into the pipeline's Results under their
// own names.
//
// When a stage in the side chain finishes its scope (for example a Take that
// has seen enough items), only the side chain is closed and the main path
// keeps receiving items. A pipeline abort (a Slice with CloseAll, a StopWhen)
// crosses the branch and stops the whole pipeline. Once both paths have
// finished, the branch itself reports finished to its enclosing chain.
//
// Closing a branch closes the side chain first, then the main path.
//
// Example:
//
//	res, err := pushz.Run(ctx, readings,
//	    pushz.NewBranch("preview",
//	        pushz.Take("first-10", 10),
//	        pushz.Output("preview", pushz.ToSlice[Reading]()),
//	    ),
//	    pushz.Output("count", pushz.Count[Reading]()),
//	)
func NewBranch[T any](name Name, stages ...Stage[T]) Stage[T] {
	return branch[T]{name: name, side: NewChain(name, stages...)}
}

type branch[T any] struct {
	side *Chain[T]
	name Name
}

func (br branch[T]) Name() Name {
	return br.name
}

func (br branch[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkOpen(br.name, next); err != nil {
		return nil, err
	}
	side, err := br.side.compile(b, nil)
	if errors.Is(err, ErrIncompletePipe) {
		// An open side collects into an anonymous output. A failed compile
		// leaves no outlets behind.
		capped, cerr := br.side.Then(Output("", ToSlice[T]())).compile(b, nil)
		if cerr == nil {
			side, err = capped, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &fanNode[T]{
		name:    br.name,
		logger:  b.logger,
		metrics: b.metrics,
		paths:   []*path[T]{{node: side, side: true}, {node: next}},
	}, nil
}

// NewFork creates a terminal stage that delivers every item to each of the
// given chains, in declaration order. Each chain must end in a terminal
// stage. A chain that finishes its scope is closed and skipped from then on;
// the fork finishes once all of its chains have.
//
// Example:
//
//	split := pushz.NewFork("split",
//	    pushz.NewChain("errors", pushz.Filter("is-error", isError), pushz.Sink("alert", alert)),
//	    pushz.NewChain("all", pushz.Output("count", pushz.Count[Event]())),
//	)
func NewFork[T any](name Name, chains ...Stage[T]) Stage[T] {
	c := make([]Stage[T], len(chains))
	copy(c, chains)
	return fork[T]{name: name, chains: c}
}

type fork[T any] struct {
	name   Name
	chains []Stage[T]
}

func (f fork[T]) Name() Name {
	return f.name
}

func (f fork[T]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkTerminal(f.name, next); err != nil {
		return nil, err
	}
	n := &fanNode[T]{name: f.name, logger: b.logger, metrics: b.metrics}
	for _, c := range f.chains {
		// Each child compiles as an inline chain so it gets its own scope.
		compiled, err := NewChain(f.name, c).compile(b, nil)
		if err != nil {
			return nil, err
		}
		n.paths = append(n.paths, &path[T]{node: compiled, side: true})
	}
	if len(n.paths) == 0 {
		return nil, incomplete(f.name)
	}
	return n, nil
}

// path is one downstream of a fanNode. Failures from side paths get the
// owner's name prepended; the main path of a branch belongs to the enclosing
// chain and reports its own path.
type path[T any] struct {
	node   node[T]
	side   bool
	done   bool
	closed bool
}

// fanNode delivers each item to every live path in order.
type fanNode[T any] struct {
	logger  *zap.Logger
	metrics *metricz.Registry
	name    Name
	paths   []*path[T]
}

func (n *fanNode[T]) push(ctx context.Context, item T) error {
	live := 0
	for i, p := range n.paths {
		if p.done {
			continue
		}
		err := p.node.push(ctx, item)
		switch {
		case err == nil:
			live++
		case isStopBranch(err):
			p.done = true
			n.metrics.Counter(StagePathsFinished).Inc()
			n.logger.Debug("path finished", zap.String("stage", n.name), zap.Int("path", i))
			if cerr := n.closePath(ctx, p); cerr != nil {
				return cerr
			}
		default:
			if p.side && !isSignal(err) {
				return prependPath[T](n.name, err)
			}
			return err
		}
	}
	if live == 0 {
		return errStopBranch
	}
	return nil
}

func (n *fanNode[T]) closePath(ctx context.Context, p *path[T]) error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.node.close(ctx)
	if err != nil && p.side {
		return prependPath[T](n.name, err)
	}
	return err
}

func (n *fanNode[T]) close(ctx context.Context) error {
	var errs []error
	for _, p := range n.paths {
		if err := n.closePath(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
