package pushz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestStopWhen(t *testing.T) {
	ctx := context.Background()

	t.Run("Stops Infinite Source", func(t *testing.T) {
		res, err := Run(ctx, Counter(0, 2),
			NewBranch("limit", StopWhen("limit", func(_ context.Context, n int) bool { return n >= 10 })),
			Output("", Count[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count, _ := ValueOf[int](res) //nolint:errcheck
		if count != 5 {
			t.Errorf("expected 5 items, got %d", count)
		}
	})

	t.Run("Stateful Predicate", func(t *testing.T) {
		res, err := Run(ctx, Counter(1, 1),
			NewBranch("limit", StopAfter[int]("limit", 10)),
			Output("", Count[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count, _ := ValueOf[int](res) //nolint:errcheck
		if count != 10 {
			t.Errorf("expected 10 items, got %d", count)
		}
	})

	t.Run("Fresh State Per Run", func(t *testing.T) {
		calls := 0
		p := NewPipeline("dedupe",
			NewBranch("first-repeat", StopWhenFunc("first-repeat", func() Predicate[string] {
				calls++
				seen := map[string]bool{}
				return func(_ context.Context, s string) bool {
					if seen[s] {
						return true
					}
					seen[s] = true
					return false
				}
			})),
			Output("", ToSlice[string]()),
		)
		defer p.Close()

		for run := 0; run < 2; run++ {
			res, err := p.Run(ctx, FromSlice([]string{"a", "b", "a", "c"}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, _ := ValueOf[[]string](res) //nolint:errcheck
			assertItems(t, "before repeat", got, []string{"a", "b"})
		}
		if calls != 2 {
			t.Errorf("expected predicate factory to run once per run, got %d", calls)
		}
	})

	t.Run("Forwards Nothing", func(t *testing.T) {
		_, err := Run(ctx, FromSlice([]int{1}),
			StopWhen("watch", func(context.Context, int) bool { return false }),
			Output("", Count[int]()),
		)
		if !errors.Is(err, ErrUnreachableStage) {
			t.Errorf("expected ErrUnreachableStage, got %v", err)
		}
	})

	t.Run("At Top Level", func(t *testing.T) {
		pulled := 0
		_, err := Run(ctx, counting(ints(10), &pulled),
			StopWhen("watch", func(_ context.Context, n int) bool { return n == 3 }),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pulled != 4 {
			t.Errorf("expected 4 items pulled, got %d", pulled)
		}
	})
}

func TestStopAfterDuration(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	// The clock jumps forward a minute before the fourth item is produced.
	source := func(yield func(int) bool) {
		for i := 0; ; i++ {
			if i == 3 {
				clock.Advance(time.Minute)
			}
			if !yield(i) {
				return
			}
		}
	}

	p := NewPipeline("timed",
		NewBranch("deadline", StopAfterDuration[int]("deadline", 30*time.Second)),
		Output("", ToSlice[int]()),
	).WithClock(clock)
	defer p.Close()

	res, err := p.Run(ctx, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := ValueOf[[]int](res) //nolint:errcheck
	assertItems(t, "before deadline", got, []int{0, 1, 2})
}
