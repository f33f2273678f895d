package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/zoobzio/pushz"
	"go.uber.org/zap"
)

const wordsText = `Push based pipelines move items from the source to the sinks.
Every stage decides what to forward and when it is done.
A branch feeds a side chain and the main chain with the same items.
Outputs fold the items they see into a value once the pipeline closes.`

// WordsExample computes word statistics with branches feeding named outputs.
type WordsExample struct{}

func (*WordsExample) Name() string { return "words" }

func (*WordsExample) Description() string {
	return "Word statistics over text with branches and outputs"
}

func (*WordsExample) Run(ctx context.Context, out io.Writer, logger *zap.Logger) error {
	res, err := pushz.NewPipeline(
		"words",
		pushz.FlatMap("split", func(_ context.Context, line string) []string {
			return strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
				return !unicode.IsLetter(r)
			})
		}),
		pushz.NewBranch("first",
			pushz.Must(pushz.Take[string]("first-five", 5)),
			pushz.Output("first", pushz.ToSlice[string]()),
		),
		pushz.NewBranch("longest",
			pushz.Output("longest", pushz.Reduce(func(a, b string) string {
				if len(b) > len(a) {
					return b
				}
				return a
			})),
		),
		pushz.Output("frequency", pushz.Fold(func(acc map[string]int, w string) map[string]int {
			acc[w]++
			return acc
		}, map[string]int{})),
	).WithLogger(logger).Run(ctx, pushz.FromSlice(strings.Split(wordsText, "\n")))
	if err != nil {
		return err
	}

	first, err := pushz.Named[[]string](res, "first")
	if err != nil {
		return err
	}
	longest, err := pushz.Named[string](res, "longest")
	if err != nil {
		return err
	}
	freq, err := pushz.Named[map[string]int](res, "frequency")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "first words:  %s\n", strings.Join(first, " "))
	fmt.Fprintf(out, "longest word: %s\n", longest)
	fmt.Fprintln(out, "most frequent:")
	for _, w := range topWords(freq, 3) {
		fmt.Fprintf(out, "  %-8s %d\n", w, freq[w])
	}
	return nil
}

func topWords(freq map[string]int, n int) []string {
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
