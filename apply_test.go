package pushz

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestApply(t *testing.T) {
	ctx := context.Background()
	parse := Apply("parse", func(_ context.Context, s string) (string, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return s, err
		}
		return strconv.Itoa(n * 2), nil
	})

	t.Run("Success", func(t *testing.T) {
		var got []string
		_, err := Run(ctx, FromSlice([]string{"1", "21"}), parse, collect(&got))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "parsed", got, []string{"2", "42"})
	})

	t.Run("Error Stops Pipeline", func(t *testing.T) {
		var got []string
		pulled := 0
		_, err := Run(ctx, counting([]string{"1", "x", "3"}, &pulled), parse, collect(&got))
		if err == nil {
			t.Fatal("expected error")
		}

		var numErr *strconv.NumError
		if !errors.As(err, &numErr) {
			t.Errorf("expected wrapped *strconv.NumError, got %v", err)
		}

		var pipeErr *Error[string]
		if !errors.As(err, &pipeErr) {
			t.Fatal("expected *Error[string]")
		}
		if pipeErr.InputData != "x" {
			t.Errorf("expected input 'x', got %q", pipeErr.InputData)
		}
		if pipeErr.Path[0] != "parse" {
			t.Errorf("expected path [parse], got %v", pipeErr.Path)
		}
		if pipeErr.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
		if pulled != 2 {
			t.Errorf("expected 2 items pulled, got %d", pulled)
		}
		assertItems(t, "before error", got, []string{"2"})
	})

	t.Run("Outputs Resolve After Error", func(t *testing.T) {
		res, err := Run(ctx, FromSlice([]string{"1", "2", "x"}),
			NewBranch("seen", Output("seen", Count[string]())),
			parse,
			Output("parsed", ToSlice[string]()),
		)
		if err == nil {
			t.Fatal("expected error")
		}
		if res == nil {
			t.Fatal("expected results alongside the error")
		}
		seen, err := Named[int](res, "seen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen != 3 {
			t.Errorf("expected 3 seen, got %d", seen)
		}
		parsed, err := Named[[]string](res, "parsed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertItems(t, "parsed", parsed, []string{"2", "4"})
	})
}
