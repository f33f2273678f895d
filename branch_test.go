package pushz

import (
	"context"
	"errors"
	"testing"
)

// closeRecorder is an accumulator that logs its name when its output closes.
type closeRecorder struct {
	log  *[]string
	name string
}

func (r *closeRecorder) Add(context.Context, int) error { return nil }

func (r *closeRecorder) Result() (int, error) {
	*r.log = append(*r.log, r.name)
	return 0, nil
}

func recordClose(name string, log *[]string) Collector[int, int] {
	return Into(func() Accumulator[int, int] { return &closeRecorder{name: name, log: log} })
}

func TestBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("Non-Interference", func(t *testing.T) {
		for _, size := range []int{0, 1, 13} {
			var side, main []int
			_, err := Run(ctx, FromSlice(ints(size)), NewBranch("b", collect(&side)), collect(&main))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertItems(t, "side", side, ints(size))
			assertItems(t, "main", main, ints(size))
		}
	})

	t.Run("Side Sees Items Before Main", func(t *testing.T) {
		var order []string
		_, err := Run(ctx, FromSlice([]int{1, 2}),
			NewBranch("b", Sink("side", func(context.Context, int) error {
				order = append(order, "side")
				return nil
			})),
			Sink("main", func(context.Context, int) error {
				order = append(order, "main")
				return nil
			}),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "order", order, []string{"side", "main", "side", "main"})
	})

	t.Run("Closes Side Before Main", func(t *testing.T) {
		var closed []string
		_, err := Run(ctx, FromSlice([]int{1}),
			NewBranch("b", Output("side", recordClose("side", &closed))),
			Output("main", recordClose("main", &closed)),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "close order", closed, []string{"side", "main"})
	})

	t.Run("Side Error Path", func(t *testing.T) {
		failure := errors.New("side failed")
		p := NewPipeline("p",
			NewBranch("audit", Apply("check", func(_ context.Context, n int) (int, error) {
				if n == 2 {
					return n, failure
				}
				return n, nil
			}), Sink("drop", func(context.Context, int) error { return nil })),
			Output("", Count[int]()),
		)
		defer p.Close()

		res, err := p.Run(ctx, FromSlice([]int{1, 2, 3}))
		if !errors.Is(err, failure) {
			t.Fatalf("expected side failure, got %v", err)
		}
		var pipeErr *Error[int]
		if !errors.As(err, &pipeErr) {
			t.Fatal("expected *Error[int]")
		}
		want := []Name{"p", "audit", "check"}
		assertItems(t, "path", pipeErr.Path, want)

		count, _ := ValueOf[int](res) //nolint:errcheck
		if count != 1 {
			t.Errorf("expected main to see 1 item before failure, got %d", count)
		}
	})

	t.Run("Finished Main Keeps Side Running", func(t *testing.T) {
		var side, main []int
		_, err := Run(ctx, FromSlice(ints(6)),
			NewBranch("b", collect(&side)),
			Must(Take[int]("take", 2)),
			collect(&main),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "side", side, ints(6))
		assertItems(t, "main", main, []int{0, 1})
	})

	t.Run("Stops Pulling When Both Paths Finish", func(t *testing.T) {
		pulled := 0
		var side, main []int
		_, err := Run(ctx, counting(ints(100), &pulled),
			NewBranch("b", Must(Take[int]("side", 3)), collect(&side)),
			Must(Take[int]("main", 5)),
			collect(&main),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "side", side, []int{0, 1, 2})
		assertItems(t, "main", main, ints(5))
		if pulled != 5 {
			t.Errorf("expected 5 items pulled, got %d", pulled)
		}
	})

	t.Run("Nested Branches", func(t *testing.T) {
		res, err := Run(ctx, FromSlice(ints(10)),
			NewBranch("outer",
				Filter("even", func(_ context.Context, n int) bool { return n%2 == 0 }),
				NewBranch("inner",
					Must(Take[int]("first-two", 2)),
					Output("", ToSlice[int]()),
				),
				Output("", ToSlice[int]()),
			),
			Output("", Count[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.NumReturns() != 3 {
			t.Fatalf("expected 3 anonymous outputs, got %d", res.NumReturns())
		}
		firstTwo, _ := ReturnOf[[]int](res, 0) //nolint:errcheck
		evens, _ := ReturnOf[[]int](res, 1)    //nolint:errcheck
		count, _ := ReturnOf[int](res, 2)      //nolint:errcheck
		assertItems(t, "first two evens", firstTwo, []int{0, 2})
		assertItems(t, "evens", evens, []int{0, 2, 4, 6, 8})
		if count != 10 {
			t.Errorf("expected count 10, got %d", count)
		}
	})
}

func TestBranchImplicitOutput(t *testing.T) {
	ctx := context.Background()
	times10 := func(_ context.Context, n int) int { return n * 10 }
	plus1 := func(_ context.Context, n int) int { return n + 1 }

	t.Run("Open Side Becomes A Return", func(t *testing.T) {
		res, err := Run(ctx, FromSlice(ints(3)),
			NewBranch("side", Transform("times10", times10)),
			Transform("plus1", plus1),
			Output("", ToSlice[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.NumReturns() != 2 {
			t.Fatalf("expected 2 returns, got %d", res.NumReturns())
		}
		side, err := ReturnOf[[]int](res, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		main, err := ReturnOf[[]int](res, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "side", side, []int{0, 10, 20})
		assertItems(t, "main", main, []int{1, 2, 3})
	})

	t.Run("Next To Named Outputs", func(t *testing.T) {
		res, err := Run(ctx, FromSlice(ints(3)),
			NewBranch("named", Transform("times10", times10), Output("branch", ToSlice[int]())),
			NewBranch("open", Transform("plus1", plus1)),
			Output("", ToSlice[int]()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		named, err := Named[[]int](res, "branch")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "named", named, []int{0, 10, 20})

		open, _ := ReturnOf[[]int](res, 0) //nolint:errcheck
		main, _ := ReturnOf[[]int](res, 1) //nolint:errcheck
		assertItems(t, "open side", open, []int{1, 2, 3})
		assertItems(t, "main", main, []int{0, 1, 2})
	})

	t.Run("Nested Open Sides", func(t *testing.T) {
		res, err := Run(ctx, FromSlice(ints(2)),
			NewBranch("outer", NewBranch("inner", Transform("times10", times10)), Transform("plus1", plus1)),
			Sink("drop", func(context.Context, int) error { return nil }),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inner, _ := ReturnOf[[]int](res, 0) //nolint:errcheck
		outer, _ := ReturnOf[[]int](res, 1) //nolint:errcheck
		assertItems(t, "inner", inner, []int{0, 10})
		assertItems(t, "outer", outer, []int{1, 2})
	})

	t.Run("Top Level Stays Incomplete", func(t *testing.T) {
		_, err := Run(ctx, FromSlice(ints(3)),
			NewBranch("side", Transform("times10", times10)),
			Transform("plus1", plus1),
		)
		if !errors.Is(err, ErrIncompletePipe) {
			t.Errorf("expected ErrIncompletePipe, got %v", err)
		}
	})
}

func TestFork(t *testing.T) {
	ctx := context.Background()

	t.Run("Every Chain Sees Every Item", func(t *testing.T) {
		var a, b []int
		_, err := Run(ctx, FromSlice([]int{1, 2, 3}),
			NewFork("split",
				NewChain("evens", Filter("even", func(_ context.Context, n int) bool { return n%2 == 0 }), collect(&a)),
				collect(&b),
			),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "evens", a, []int{2})
		assertItems(t, "all", b, []int{1, 2, 3})
	})

	t.Run("Finishes When All Chains Finish", func(t *testing.T) {
		pulled := 0
		var a, b []int
		_, err := Run(ctx, counting(ints(50), &pulled),
			NewFork("split",
				NewChain("a", Must(Take[int]("a", 2)), collect(&a)),
				NewChain("b", Must(Take[int]("b", 4)), collect(&b)),
			),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "a", a, []int{0, 1})
		assertItems(t, "b", b, ints(4))
		if pulled != 4 {
			t.Errorf("expected 4 items pulled, got %d", pulled)
		}
	})

	t.Run("Is Terminal", func(t *testing.T) {
		var a []int
		_, err := Run(ctx, FromSlice([]int{1}), NewFork("f", collect(&a)), Output("", Count[int]()))
		if !errors.Is(err, ErrUnreachableStage) {
			t.Errorf("expected ErrUnreachableStage, got %v", err)
		}
	})

	t.Run("Requires Chains", func(t *testing.T) {
		_, err := Run(ctx, FromSlice([]int{1}), NewFork[int]("empty"))
		if !errors.Is(err, ErrIncompletePipe) {
			t.Errorf("expected ErrIncompletePipe, got %v", err)
		}
	})
}
