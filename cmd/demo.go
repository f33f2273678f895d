package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	demoAll     bool
	demoVerbose bool

	demoCmd = &cobra.Command{
		Use:   "demo [example]",
		Short: "Run a demo pipeline",
		Long: `Run one of the pushz demo pipelines, or all of them with --all.

Available demos:
  words   Word statistics over text with branches and outputs
  primes  Prime numbers from an infinite counter with StopWhen
  fanout  Concurrent consumers sharing one source`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var completions []string
			for _, ex := range getAllExamples() {
				if strings.HasPrefix(ex.Name(), toComplete) {
					completions = append(completions, ex.Name())
				}
			}
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := zap.NewNop()
			if demoVerbose {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
			}

			example := ""
			if len(args) > 0 {
				example = args[0]
			}
			return runDemo(ctx, cmd.OutOrStdout(), logger, example, demoAll)
		},
	}
)

func init() {
	demoCmd.Flags().BoolVar(&demoAll, "all", false, "Run all demos sequentially")
	demoCmd.Flags().BoolVarP(&demoVerbose, "verbose", "v", false, "Write pipeline debug logs to stderr")
}

// runDemo runs a demo based on the example name.
func runDemo(ctx context.Context, out io.Writer, logger *zap.Logger, example string, all bool) error {
	if all {
		for _, ex := range getAllExamples() {
			fmt.Fprintf(out, "== %s\n", ex.Name())
			if err := ex.Run(ctx, out, logger); err != nil {
				return fmt.Errorf("%s: %w", ex.Name(), err)
			}
			fmt.Fprintln(out)
		}
		return nil
	}

	if example == "" {
		return fmt.Errorf("no demo given\n\nRun 'pushz list' to see available demos")
	}
	ex, ok := getExampleByName(example)
	if !ok {
		return fmt.Errorf("unknown demo: %s\n\nRun 'pushz list' to see available demos", example)
	}
	return ex.Run(ctx, out, logger)
}
