package main

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// Example defines the interface that all demos implement.
type Example interface {
	Name() string
	Description() string
	Run(ctx context.Context, out io.Writer, logger *zap.Logger) error
}

// getAllExamples returns all registered demos in a consistent order.
func getAllExamples() []Example {
	return []Example{
		&WordsExample{},
		&PrimesExample{},
		&FanoutExample{},
	}
}

func getExampleByName(name string) (Example, bool) {
	for _, ex := range getAllExamples() {
		if ex.Name() == name {
			return ex, true
		}
	}
	return nil, false
}
