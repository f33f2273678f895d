package pushz

import (
	"context"
	"errors"
	"testing"
)

func TestChain(t *testing.T) {
	ctx := context.Background()
	double := Transform("double", func(_ context.Context, n int) int { return n * 2 })
	inc := Transform("inc", func(_ context.Context, n int) int { return n + 1 })

	t.Run("Then Does Not Modify Receiver", func(t *testing.T) {
		base := NewChain("base", double)
		extended := base.Then(inc)
		if base.Len() != 1 {
			t.Errorf("expected base length 1, got %d", base.Len())
		}
		if extended.Len() != 2 {
			t.Errorf("expected extended length 2, got %d", extended.Len())
		}
		names := extended.Names()
		if names[0] != "double" || names[1] != "inc" {
			t.Errorf("expected [double inc], got %v", names)
		}
		if extended.Name() != "base" {
			t.Errorf("expected name 'base', got %s", extended.Name())
		}
	})

	t.Run("Nested Open Chain Is Inlined", func(t *testing.T) {
		var got []int
		open := NewChain("open", double, inc)
		_, err := Run(ctx, FromSlice([]int{1, 2}), open, collect(&got))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "nested", got, []int{3, 5})
	})

	t.Run("Terminated Chain Is Terminal", func(t *testing.T) {
		var got []int
		closed := NewChain("closed", double, collect(&got))
		if _, err := Run(ctx, FromSlice([]int{1, 2}), inc, closed); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "terminated", got, []int{4, 6})

		_, err := Run(ctx, FromSlice([]int{1}), closed, Output("", Count[int]()))
		if !errors.Is(err, ErrUnreachableStage) {
			t.Errorf("expected ErrUnreachableStage, got %v", err)
		}
	})

	t.Run("Empty Sub-Chain Is Identity", func(t *testing.T) {
		var got []int
		_, err := Run(ctx, FromSlice([]int{1, 2}), NewChain[int]("empty"), collect(&got))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "identity", got, []int{1, 2})
	})

	t.Run("Reuse Independence", func(t *testing.T) {
		open := NewChain("open", double)
		p := NewPipeline("reuse", open, Output("sum", Fold(func(acc, n int) int { return acc + n }, 0)))
		defer p.Close()

		first, err := p.Run(ctx, FromSlice([]int{1, 2, 3}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := p.Run(ctx, FromSlice([]int{10}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sum1, _ := Named[int](first, "sum")  //nolint:errcheck
		sum2, _ := Named[int](second, "sum") //nolint:errcheck
		if sum1 != 12 {
			t.Errorf("expected first sum 12, got %d", sum1)
		}
		if sum2 != 20 {
			t.Errorf("expected second sum 20, got %d", sum2)
		}

		// The first run's results are unaffected by the second run.
		sum1, _ = Named[int](first, "sum") //nolint:errcheck
		if sum1 != 12 {
			t.Errorf("expected first sum to stay 12, got %d", sum1)
		}
	})

	t.Run("Same Chain Embedded Twice", func(t *testing.T) {
		open := NewChain("open", double)
		res, err := Run(ctx, FromSlice([]int{1, 2}),
			NewBranch("side", open, Output("side", ToSlice[int]())),
			open, open,
			Output("main", ToSlice[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		side, _ := Named[[]int](res, "side") //nolint:errcheck
		main, _ := Named[[]int](res, "main") //nolint:errcheck
		assertItems(t, "side", side, []int{2, 4})
		assertItems(t, "main", main, []int{4, 8})
	})
}

func TestTopologyErrors(t *testing.T) {
	ctx := context.Background()
	double := Transform("double", func(_ context.Context, n int) int { return n * 2 })
	drop := Sink("drop", func(context.Context, int) error { return nil })

	tests := []struct {
		name   string
		stages []Stage[int]
		want   error
	}{
		{"no stages", nil, ErrEmptyChain},
		{"empty top-level chain", []Stage[int]{NewChain[int]("empty")}, ErrEmptyChain},
		{"bare transform", []Stage[int]{double}, ErrIncompletePipe},
		{"open tail after sink", []Stage[int]{drop, double}, ErrIncompletePipe},
		{"stage after sink", []Stage[int]{drop, Output("", Count[int]())}, ErrUnreachableStage},
		{"stage after output", []Stage[int]{Output("", Count[int]()), drop}, ErrUnreachableStage},
		{"open tail inside branch side", []Stage[int]{NewBranch("b", drop, double), drop}, ErrIncompletePipe},
		{"branch at tail", []Stage[int]{NewBranch("b", drop)}, ErrIncompletePipe},
		{"nil stage", []Stage[int]{double, nil, drop}, ErrNilStage},
		{"duplicate output", []Stage[int]{NewBranch("b", Output("x", Count[int]())), Output("x", Count[int]())}, ErrDuplicateOutput},
		{"nested duplicate", []Stage[int]{
			NewBranch("b", NewBranch("c", Output("x", Count[int]())), Output("y", Count[int]())),
			Output("x", Count[int]()),
		}, ErrDuplicateOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pulled := 0
			_, err := Run(ctx, counting(ints(5), &pulled), tt.stages...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if pulled != 0 {
				t.Errorf("expected no items pulled, got %d", pulled)
			}

			if _, err := Compile(tt.stages...); !errors.Is(err, tt.want) {
				t.Errorf("Compile: expected %v, got %v", tt.want, err)
			}
		})
	}
}
