package pushz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Condition determines routing based on an item.
// Returns a route key of any comparable type for multi-way branching.
//
// Using generic keys instead of strings enables type-safe routing
// beyond simple string matching. Define custom types for your routes:
//
//	type Severity string
//	const (
//	    SeverityInfo  Severity = "info"
//	    SeverityError Severity = "error"
//	)
type Condition[T any, K comparable] func(context.Context, T) K

// Switch routes each item down exactly one of several chains, chosen by the
// key its condition returns. It is the keyed counterpart of NewFork: where a
// fork sends every item everywhere, a switch sends it to one place.
//
// Switch is terminal, and every route must end in a terminal stage. Items
// whose key has no route go to the Default chain, or are dropped if there is
// none. A route that finishes its scope is closed, and later items for its
// key are dropped; the switch finishes once every route has. A pipeline
// abort inside a route stops the whole pipeline.
//
// Routes are configured before the switch is driven. Each compilation
// snapshots them, so changing routes does not affect runs in progress.
//
// Example:
//
//	route := pushz.NewSwitch("by-severity", func(_ context.Context, e Event) Severity {
//	    return e.Severity
//	}).
//	    AddRoute(SeverityError, pushz.Sink("alert", alert)).
//	    AddRoute(SeverityInfo, pushz.Output("info", pushz.Count[Event]())).
//	    Default(pushz.Sink("discard", discard))
type Switch[T any, K comparable] struct {
	condition Condition[T, K]
	routes    map[K]*Chain[T]
	fallback  *Chain[T]
	name      Name
	keys      []K
	mu        sync.RWMutex
}

// NewSwitch creates a new Switch with the given condition function.
func NewSwitch[T any, K comparable](name Name, condition Condition[T, K]) *Switch[T, K] {
	return &Switch[T, K]{
		name:      name,
		condition: condition,
		routes:    make(map[K]*Chain[T]),
	}
}

// AddRoute adds or replaces the chain for key. Returns the switch to allow
// method chaining.
func (s *Switch[T, K]) AddRoute(key K, stages ...Stage[T]) *Switch[T, K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.routes[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.routes[key] = NewChain(fmt.Sprintf("%s[%v]", s.name, key), stages...)
	return s
}

// Default sets the chain receiving items whose key has no route.
func (s *Switch[T, K]) Default(stages ...Stage[T]) *Switch[T, K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = NewChain(s.name, stages...)
	return s
}

// RemoveRoute removes the chain for key.
func (s *Switch[T, K]) RemoveRoute(key K) *Switch[T, K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.routes[key]; !exists {
		return s
	}
	delete(s.routes, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return s
}

// HasRoute checks if a route exists for the given key.
func (s *Switch[T, K]) HasRoute(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.routes[key]
	return exists
}

// Routes returns the route keys in the order they were added.
func (s *Switch[T, K]) Routes() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Name returns the name of this switch.
func (s *Switch[T, K]) Name() Name {
	return s.name
}

func (s *Switch[T, K]) compile(b *builder, next node[T]) (node[T], error) {
	if err := checkTerminal(s.name, next); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := &switchNode[T, K]{
		condition: s.condition,
		routes:    make(map[K]*path[T], len(s.keys)),
		fan:       fanNode[T]{name: s.name, logger: b.logger, metrics: b.metrics},
	}
	for _, key := range s.keys {
		compiled, err := s.routes[key].compile(b, nil)
		if err != nil {
			return nil, err
		}
		p := &path[T]{node: compiled, side: true}
		n.routes[key] = p
		n.fan.paths = append(n.fan.paths, p)
	}
	if s.fallback != nil {
		compiled, err := s.fallback.compile(b, nil)
		if err != nil {
			return nil, err
		}
		n.fallback = &path[T]{node: compiled, side: true}
		n.fan.paths = append(n.fan.paths, n.fallback)
	}
	return n, nil
}

type switchNode[T any, K comparable] struct {
	condition Condition[T, K]
	routes    map[K]*path[T]
	fallback  *path[T]
	fan       fanNode[T]
	finished  int
}

func (n *switchNode[T, K]) push(ctx context.Context, item T) error {
	start := time.Now()
	key, err := n.route(ctx, item)
	if err != nil {
		return stageError(n.fan.name, item, start, err)
	}

	p, ok := n.routes[key]
	if !ok {
		p = n.fallback
	}
	if p == nil || p.done {
		return nil
	}

	err = p.node.push(ctx, item)
	switch {
	case err == nil:
		return nil
	case isStopBranch(err):
		p.done = true
		n.finished++
		n.fan.metrics.Counter(StagePathsFinished).Inc()
		if cerr := n.fan.closePath(ctx, p); cerr != nil {
			return cerr
		}
		if n.finished == len(n.fan.paths) {
			return errStopBranch
		}
		return nil
	case isAbort(err):
		return err
	default:
		return prependPath[T](n.fan.name, err)
	}
}

func (n *switchNode[T, K]) route(ctx context.Context, item T) (key K, err error) {
	defer recoverFromPanic(&err, n.fan.name, item)
	return n.condition(ctx, item), nil
}

func (n *switchNode[T, K]) close(ctx context.Context) error {
	return n.fan.close(ctx)
}
