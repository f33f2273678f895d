package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestDemos(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"words", []string{"first words:  push based pipelines move items", "longest word:", "the"}},
		{"primes", []string{"primes seen:  26", "twin pairs:   8", "last primes:  [79 83 89 97 101]"}},
		{"fanout", []string{"sum of squares: 333833500", "multiples of 7: [7 14 21 28 35 42 49 56 63 70]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runDemo(context.Background(), &out, zap.NewNop(), tt.name, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
				}
			}
		})
	}

	t.Run("Unknown Demo", func(t *testing.T) {
		err := runDemo(context.Background(), &bytes.Buffer{}, zap.NewNop(), "nope", false)
		if err == nil || !strings.Contains(err.Error(), "unknown demo") {
			t.Errorf("expected unknown demo error, got %v", err)
		}
	})

	t.Run("All", func(t *testing.T) {
		var out bytes.Buffer
		if err := runDemo(context.Background(), &out, zap.NewNop(), "", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, ex := range getAllExamples() {
			if !strings.Contains(out.String(), "== "+ex.Name()) {
				t.Errorf("expected section for %s", ex.Name())
			}
		}
	})
}
