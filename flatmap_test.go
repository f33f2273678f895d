package pushz

import (
	"context"
	"strings"
	"testing"
)

func TestFlatMap(t *testing.T) {
	ctx := context.Background()
	words := FlatMap("words", func(_ context.Context, line string) []string {
		return strings.Fields(line)
	})

	t.Run("Expands In Order", func(t *testing.T) {
		var got []string
		_, err := Run(ctx, FromSlice([]string{"a b", "", "c d e"}), words, collect(&got))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "words", got, []string{"a", "b", "c", "d", "e"})
	})

	t.Run("Stops Mid Batch", func(t *testing.T) {
		var got []string
		pulled := 0
		_, err := Run(ctx, counting([]string{"a b c", "d e"}, &pulled),
			words,
			Must(Take[string]("two", 2)),
			collect(&got),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "words", got, []string{"a", "b"})
		if pulled != 1 {
			t.Errorf("expected 1 line pulled, got %d", pulled)
		}
	})
}
