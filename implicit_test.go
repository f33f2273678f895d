package pushz

import (
	"context"
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Run("Conversions", func(t *testing.T) {
		tests := []struct {
			component any
			name      Name
		}{
			{Transform("explicit", func(_ context.Context, n int) int { return n }), "explicit"},
			{List{func(int) {}}, BranchName},
			{Group{func(n int) int { return n }}, ChainName},
			{Predicate[int](func(context.Context, int) bool { return true }), FilterName},
			{func(n int) int { return n }, TransformName},
			{func(_ context.Context, n int) int { return n }, TransformName},
			{func(int) {}, SinkName},
		}
		for _, tt := range tests {
			stage, err := Decode[int](tt.component)
			if err != nil {
				t.Errorf("%T: unexpected error: %v", tt.component, err)
				continue
			}
			if stage.Name() != tt.name {
				t.Errorf("%T: expected name %q, got %q", tt.component, tt.name, stage.Name())
			}
		}
	})

	t.Run("Unknown Components", func(t *testing.T) {
		for _, c := range []any{
			42,
			"stage",
			func(context.Context, int) bool { return true },
			func(string) string { return "" },
			List{42},
		} {
			if _, err := Decode[int](c); !errors.Is(err, ErrUnknownComponent) {
				t.Errorf("%T: expected ErrUnknownComponent, got %v", c, err)
			}
		}
		if _, err := Decode[int](nil); !errors.Is(err, ErrNilStage) {
			t.Errorf("expected ErrNilStage, got %v", err)
		}
	})
}

func TestCompose(t *testing.T) {
	ctx := context.Background()
	var side, main []int

	c, err := Compose[int]("composed",
		Predicate[int](func(_ context.Context, n int) bool { return n%2 == 0 }),
		func(n int) int { return n * 10 },
		List{func(n int) { side = append(side, n) }},
		Group{func(n int) int { return n + 1 }},
		func(n int) { main = append(main, n) },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 5 {
		t.Errorf("expected 5 stages, got %d", c.Len())
	}

	if _, err := Run(ctx, FromSlice(ints(6)), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertItems(t, "side", side, []int{0, 20, 40})
	assertItems(t, "main", main, []int{1, 21, 41})

	_, err = Compose[int]("bad", func(n int) int { return n }, 3.14)
	if !errors.Is(err, ErrUnknownComponent) {
		t.Errorf("expected ErrUnknownComponent, got %v", err)
	}
}

func TestComposeOpenList(t *testing.T) {
	c, err := Compose[int]("open-list",
		List{func(n int) int { return n * 10 }},
		Output("", ToSlice[int]()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := Run(context.Background(), FromSlice(ints(3)), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	side, _ := ReturnOf[[]int](res, 0) //nolint:errcheck
	main, _ := ReturnOf[[]int](res, 1) //nolint:errcheck
	assertItems(t, "list", side, []int{0, 10, 20})
	assertItems(t, "main", main, []int{0, 1, 2})
}
