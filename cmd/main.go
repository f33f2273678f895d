package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "pushz",
		Short: "Push-based pipeline demos",
		Long: `pushz is a CLI tool for exploring push-based pipelines.

Each demo builds a pipeline from pushz stages, drives a source through it
and prints the outputs it collected.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available demos",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available demos:")
		fmt.Fprintln(out)
		for _, ex := range getAllExamples() {
			fmt.Fprintf(out, "  %-10s %s\n", ex.Name(), ex.Description())
		}
	},
}
