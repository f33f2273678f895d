package main

import (
	"context"
	"fmt"
	"io"

	"github.com/zoobzio/pushz"
	"go.uber.org/zap"
)

// FanoutExample runs independent consumers concurrently over one source.
type FanoutExample struct{}

func (*FanoutExample) Name() string { return "fanout" }

func (*FanoutExample) Description() string {
	return "Concurrent consumers sharing one source"
}

func (*FanoutExample) Run(ctx context.Context, out io.Writer, logger *zap.Logger) error {
	squares := pushz.NewChain[int]("squares",
		pushz.Transform("square", func(_ context.Context, n int) int { return n * n }),
		pushz.Output("", pushz.Fold(func(acc, n int) int { return acc + n }, 0)),
	)
	multiples := pushz.NewChain[int]("multiples",
		pushz.Filter("of-seven", func(_ context.Context, n int) bool { return n%7 == 0 }),
		pushz.Must(pushz.Take[int]("first-ten", 10)),
		pushz.Output("", pushz.ToSlice[int]()),
	)

	results, err := pushz.NewFanout[int]("numbers", 16, squares, multiples).
		WithLogger(logger).
		Run(ctx, pushz.FromSlice(numbers(1000)))
	if err != nil {
		return err
	}

	sum, err := pushz.ValueOf[int](results[0])
	if err != nil {
		return err
	}
	sevens, err := pushz.ValueOf[[]int](results[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sum of squares: %d\n", sum)
	fmt.Fprintf(out, "multiples of 7: %v\n", sevens)
	return nil
}

func numbers(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i + 1
	}
	return s
}
