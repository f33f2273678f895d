package main

import (
	"context"
	"fmt"
	"io"

	"github.com/zoobzio/pushz"
	"go.uber.org/zap"
)

// PrimesExample filters primes out of an infinite counter and stops the
// pipeline once the first prime above a bound is seen.
type PrimesExample struct{}

func (*PrimesExample) Name() string { return "primes" }

func (*PrimesExample) Description() string {
	return "Prime numbers from an infinite counter with StopWhen"
}

func (*PrimesExample) Run(ctx context.Context, out io.Writer, logger *zap.Logger) error {
	const bound = 100

	var primes []int
	res, err := pushz.NewPipeline(
		"primes",
		pushz.Filter("prime", func(_ context.Context, n int) bool {
			for _, p := range primes {
				if p*p > n {
					break
				}
				if n%p == 0 {
					return false
				}
			}
			primes = append(primes, n)
			return true
		}),
		pushz.NewBranch("twins", pushz.Output("twins", pushz.Into(newTwinCounter))),
		pushz.NewBranch("count", pushz.Output("count", pushz.Count[int]())),
		pushz.StopWhen("past-bound", func(_ context.Context, n int) bool { return n > bound }),
	).WithLogger(logger).Run(ctx, pushz.Counter(2, 1))
	if err != nil {
		return err
	}

	count, err := pushz.Named[int](res, "count")
	if err != nil {
		return err
	}
	twins, err := pushz.Named[int](res, "twins")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "primes seen:  %d (the last one above %d)\n", count, bound)
	fmt.Fprintf(out, "twin pairs:   %d\n", twins)
	fmt.Fprintf(out, "last primes:  %v\n", primes[max(0, len(primes)-5):])
	return nil
}

// twinCounter counts consecutive primes that differ by two.
type twinCounter struct {
	last  int
	pairs int
}

func newTwinCounter() pushz.Accumulator[int, int] {
	return &twinCounter{}
}

func (c *twinCounter) Add(_ context.Context, p int) error {
	if c.last != 0 && p-c.last == 2 {
		c.pairs++
	}
	c.last = p
	return nil
}

func (c *twinCounter) Result() (int, error) {
	return c.pairs, nil
}
