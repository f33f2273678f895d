package pushz

import (
	"context"
	"slices"
	"testing"
)

// collect returns a sink appending every item to out.
func collect[T any](out *[]T) Stage[T] {
	return Sink("collect", func(_ context.Context, item T) error {
		*out = append(*out, item)
		return nil
	})
}

func ints(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

// counting wraps a slice source and records how many items were pulled.
func counting[T any](items []T, pulled *int) func(func(T) bool) {
	return func(yield func(T) bool) {
		for _, item := range items {
			*pulled++
			if !yield(item) {
				return
			}
		}
	}
}

func assertItems[T comparable](t *testing.T, label string, got, want []T) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("%s: expected %v, got %v", label, want, got)
	}
}
