// Package testing provides test utilities and helpers for pushz-based applications.
//
// This package includes a mock sink, assertion helpers, and chaos testing
// tools to make testing pushz pipelines easier and more comprehensive.
//
// Example usage:
//
//	func TestMyPipeline(t *testing.T) {
//		sink := testing.NewMockSink[string](t, "mock-sink")
//
//		_, err := pushz.Run(context.Background(), pushz.FromSlice([]string{"a", "b"}),
//			pushz.Transform("upper", upper),
//			sink.Stage(),
//		)
//
//		require.NoError(t, err)
//		testing.AssertReceivedItems(t, sink, []string{"A", "B"})
//	}
package testing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"iter"
	mathrand "math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/pushz"
)

// MockSink provides a configurable terminal stage for tests.
// It records every item it receives, and can be configured to fail, panic
// or delay, which makes it useful for testing error paths and closing.
type MockSink[T any] struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	t         *testing.T
	name      string
	callCount int64
	items     []T
	returnErr error
	failAfter int
	delay     time.Duration
	panicMsg  string
	mu        sync.RWMutex
}

// NewMockSink creates a new mock sink for testing.
func NewMockSink[T any](t *testing.T, name string) *MockSink[T] {
	return &MockSink[T]{
		t:         t,
		name:      name,
		failAfter: -1,
	}
}

// WithError configures the sink to return err for every item.
func (m *MockSink[T]) WithError(err error) *MockSink[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnErr = err
	m.failAfter = 0
	return m
}

// WithErrorAfter configures the sink to accept n items and return err for
// every item after that.
func (m *MockSink[T]) WithErrorAfter(n int, err error) *MockSink[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnErr = err
	m.failAfter = n
	return m
}

// WithDelay configures the sink to delay each item.
// This is useful for testing cancellation and fan-out queues.
func (m *MockSink[T]) WithDelay(d time.Duration) *MockSink[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPanic configures the sink to panic with a specific message.
// This is useful for testing panic recovery.
func (m *MockSink[T]) WithPanic(msg string) *MockSink[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
	return m
}

// Name returns the name of the mock sink.
func (m *MockSink[T]) Name() pushz.Name {
	return pushz.Name(m.name)
}

// Stage returns the terminal stage feeding this mock. The same mock may back
// several stages; they all record into it.
func (m *MockSink[T]) Stage() pushz.Stage[T] {
	return pushz.Sink(m.name, m.consume)
}

func (m *MockSink[T]) consume(ctx context.Context, item T) error {
	n := atomic.AddInt64(&m.callCount, 1)

	m.mu.Lock()
	delay := m.delay
	panicMsg := m.panicMsg
	failAfter := m.failAfter
	returnErr := m.returnErr
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if failAfter >= 0 && n > int64(failAfter) {
		return returnErr
	}

	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()
	return nil
}

// CallCount returns the number of items pushed into the sink, including
// the ones it rejected.
func (m *MockSink[T]) CallCount() int {
	return int(atomic.LoadInt64(&m.callCount))
}

// Items returns a copy of the items the sink accepted, in arrival order.
func (m *MockSink[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

// Reset clears all recorded items.
func (m *MockSink[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.StoreInt64(&m.callCount, 0)
	m.items = nil
}

// Assertion Helpers

// AssertReceived verifies that a mock sink was called exactly n times.
func AssertReceived[T any](t *testing.T, mock *MockSink[T], expectedCalls int) {
	t.Helper()
	actualCalls := mock.CallCount()
	if actualCalls != expectedCalls {
		t.Errorf("expected mock sink %s to receive %d items, but received %d",
			mock.name, expectedCalls, actualCalls)
	}
}

// AssertNotReceived verifies that a mock sink never received an item.
func AssertNotReceived[T any](t *testing.T, mock *MockSink[T]) {
	t.Helper()
	AssertReceived(t, mock, 0)
}

// AssertReceivedItems verifies that a mock sink accepted exactly the expected
// items, in order.
func AssertReceivedItems[T comparable](t *testing.T, mock *MockSink[T], expected []T) {
	t.Helper()
	actual := mock.Items()
	if !slices.Equal(actual, expected) {
		t.Errorf("expected mock sink %s to receive %v, but received %v",
			mock.name, expected, actual)
	}
}

// WaitForItems waits for a mock sink to receive at least n items.
// Returns true if the count was reached within the timeout.
func WaitForItems[T any](mock *MockSink[T], n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if mock.CallCount() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// ChaosConfig holds configuration for chaos testing.
type ChaosConfig struct {
	FailureRate float64       // Probability of returning an error (0.0 to 1.0)
	LatencyMin  time.Duration // Minimum additional latency to inject
	LatencyMax  time.Duration // Maximum additional latency to inject
	PanicRate   float64       // Probability of panicking (0.0 to 1.0)
	Seed        int64         // Random seed for reproducible chaos (0 for random seed)
}

// ErrChaos is returned by chaos stages when they inject a failure.
var ErrChaos = errors.New("chaos stage induced failure")

// Chaos injects controlled failures, panics and delays into a pipeline.
// Its Stage forwards items unchanged unless chaos strikes.
type Chaos[T any] struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	name        string
	failureRate float64
	latencyMin  time.Duration
	latencyMax  time.Duration
	panicRate   float64
	rng         *mathrand.Rand
	mu          sync.Mutex
	totalCalls  int64
	failedCalls int64
	panicCalls  int64
}

// NewChaos creates a chaos injector.
func NewChaos[T any](name string, config ChaosConfig) *Chaos[T] {
	seed := config.Seed
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := rand.Read(seedBytes[:]); err != nil {
			seed = time.Now().UnixNano()
		} else {
			seed = int64(seedBytes[0])<<56 | int64(seedBytes[1])<<48 | int64(seedBytes[2])<<40 | int64(seedBytes[3])<<32 |
				int64(seedBytes[4])<<24 | int64(seedBytes[5])<<16 | int64(seedBytes[6])<<8 | int64(seedBytes[7])
		}
	}

	return &Chaos[T]{
		name:        name,
		failureRate: config.FailureRate,
		latencyMin:  config.LatencyMin,
		latencyMax:  config.LatencyMax,
		panicRate:   config.PanicRate,
		rng:         mathrand.New(mathrand.NewSource(seed)), //nolint:gosec // G404: Test utility uses weak RNG for deterministic chaos scenarios
	}
}

// Stage returns a pass-through stage with chaos injection.
func (c *Chaos[T]) Stage() pushz.Stage[T] {
	return pushz.Apply(c.name, c.inject)
}

func (c *Chaos[T]) inject(ctx context.Context, item T) (T, error) {
	atomic.AddInt64(&c.totalCalls, 1)

	c.mu.Lock()
	if c.rng.Float64() < c.panicRate {
		c.mu.Unlock()
		atomic.AddInt64(&c.panicCalls, 1)
		panic("chaos stage induced panic")
	}

	var latency time.Duration
	if c.latencyMax > c.latencyMin {
		latencyRange := c.latencyMax - c.latencyMin
		latency = c.latencyMin + time.Duration(c.rng.Int63n(int64(latencyRange)))
	} else if c.latencyMin > 0 {
		latency = c.latencyMin
	}

	injectFailure := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return item, ctx.Err()
		}
	}

	if injectFailure {
		atomic.AddInt64(&c.failedCalls, 1)
		return item, ErrChaos
	}
	return item, nil
}

// Stats returns statistics about chaos injection.
func (c *Chaos[T]) Stats() ChaosStats {
	return ChaosStats{
		TotalCalls:  atomic.LoadInt64(&c.totalCalls),
		FailedCalls: atomic.LoadInt64(&c.failedCalls),
		PanicCalls:  atomic.LoadInt64(&c.panicCalls),
	}
}

// ChaosStats holds statistics about chaos injection.
type ChaosStats struct {
	TotalCalls  int64
	FailedCalls int64
	PanicCalls  int64
}

// FailureRate returns the observed failure rate.
func (s ChaosStats) FailureRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.FailedCalls) / float64(s.TotalCalls)
}

// String returns a string representation of the chaos statistics.
func (s ChaosStats) String() string {
	return fmt.Sprintf("calls=%d failed=%d panics=%d (failure rate %.1f%%)",
		s.TotalCalls, s.FailedCalls, s.PanicCalls, s.FailureRate()*100)
}

// CollectN returns the first n items of a source. It is handy for checking
// infinite sources without driving a pipeline.
func CollectN[T any](source iter.Seq[T], n int) []T {
	out := make([]T, 0, n)
	if n <= 0 {
		return out
	}
	for item := range source {
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out
}
