package pushz

import (
	"context"
	"errors"
	"testing"
)

func TestEffect(t *testing.T) {
	ctx := context.Background()

	t.Run("Observes Without Changing", func(t *testing.T) {
		var seen, got []int
		spy := Effect("spy", func(_ context.Context, n int) error {
			seen = append(seen, n)
			return nil
		})
		_, err := Run(ctx, FromSlice([]int{1, 2, 3}), spy, collect(&got))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "seen", seen, []int{1, 2, 3})
		assertItems(t, "forwarded", got, []int{1, 2, 3})
	})

	t.Run("Error Stops Pipeline", func(t *testing.T) {
		validationErr := errors.New("negative")
		var got []int
		check := Effect("check", func(_ context.Context, n int) error {
			if n < 0 {
				return validationErr
			}
			return nil
		})
		_, err := Run(ctx, FromSlice([]int{1, -1, 2}), check, collect(&got))
		if !errors.Is(err, validationErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		assertItems(t, "forwarded", got, []int{1})
	})
}
