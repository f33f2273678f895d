package pushz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Topology and construction errors. They are returned before any item is
// pulled from a source.
var (
	// ErrEmptyChain is returned when a chain with no stages is driven.
	ErrEmptyChain = errors.New("pushz: chain needs at least one stage")
	// ErrIncompletePipe is returned when a driven chain does not end in a
	// terminal stage (Sink, Output, StopWhen, Fork or Switch).
	ErrIncompletePipe = errors.New("pushz: incomplete pipe, chain does not end in a sink or output")
	// ErrUnreachableStage is returned when a stage follows a terminal stage.
	ErrUnreachableStage = errors.New("pushz: stage follows a terminal stage")
	// ErrDuplicateOutput is returned when two named outputs share a name.
	ErrDuplicateOutput = errors.New("pushz: duplicate output name")
	// ErrInvalidSlice is returned by Slice, Take and Drop for negative bounds
	// or a non-positive step.
	ErrInvalidSlice = errors.New("pushz: invalid slice bounds")
	// ErrUnknownComponent is returned by Decode for values it cannot interpret.
	ErrUnknownComponent = errors.New("pushz: cannot interpret component")
	// ErrNilStage is returned when a nil stage is compiled.
	ErrNilStage = errors.New("pushz: nil stage")
)

// Result errors.
var (
	// ErrEmptyStream resolves the future of a Reduce output that closed
	// without receiving a single item.
	ErrEmptyStream = errors.New("pushz: reduce over empty stream with no initial value")
	// ErrUnresolved is returned by Future.Result before the future resolves.
	ErrUnresolved = errors.New("pushz: future not resolved")
	// ErrUnknownOutput is returned when Results has no output with the requested name.
	ErrUnknownOutput = errors.New("pushz: unknown output")
	// ErrNotSingleValue is returned by Results.Value unless the run produced
	// exactly one anonymous output.
	ErrNotSingleValue = errors.New("pushz: results do not hold a single anonymous value")
	// ErrResultType is returned by the typed accessors when the stored value
	// has a different type.
	ErrResultType = errors.New("pushz: result has unexpected type")
	// ErrPanic wraps a panic recovered from user code.
	ErrPanic = errors.New("pushz: panic in stage")
)

// Error provides rich context about a failure inside a running pipeline.
// It records where the failure happened (Path, outermost first), the item
// being processed, and whether the failure was caused by a timeout or
// cancellation.
//
// Error handling example:
//
//	res, err := pipeline.Run(ctx, source)
//	if err != nil {
//	    var pipeErr *pushz.Error[Record]
//	    if errors.As(err, &pipeErr) {
//	        log.Printf("failed at %s on %+v", strings.Join(pipeErr.Path, " -> "), pipeErr.InputData)
//	    }
//	}
type Error[T any] struct {
	Timestamp time.Time
	InputData T
	Err       error
	Path      []Name
	Duration  time.Duration
	Timeout   bool
	Canceled  bool
}

// Error implements the error interface, providing a detailed error message.
func (e *Error[T]) Error() string {
	location := strings.Join(e.Path, " -> ")
	if location == "" {
		location = "pipeline"
	}

	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *Error[T]) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error was caused by a timeout.
func (e *Error[T]) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled returns true if the error was caused by cancellation.
func (e *Error[T]) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

// stageError wraps a failure returned by user code in an *Error[T].
// Control signals and errors that already carry a path pass through.
func stageError[T any](name Name, item T, start time.Time, err error) error {
	if err == nil || isSignal(err) {
		return err
	}
	var pipeErr *Error[T]
	if errors.As(err, &pipeErr) {
		return err
	}
	return &Error[T]{
		Timestamp: time.Now(),
		InputData: item,
		Err:       err,
		Path:      []Name{name},
		Duration:  time.Since(start),
		Timeout:   errors.Is(err, context.DeadlineExceeded),
		Canceled:  errors.Is(err, context.Canceled),
	}
}

// prependPath adds name in front of the path of an *Error[T]. Other errors,
// and empty names, leave err untouched.
func prependPath[T any](name Name, err error) error {
	if name == "" {
		return err
	}
	var pipeErr *Error[T]
	if errors.As(err, &pipeErr) {
		pipeErr.Path = append([]Name{name}, pipeErr.Path...)
	}
	return err
}

// recoverFromPanic converts a panic in user code into an *Error[T].
// It must be deferred directly by the function whose error it sets.
func recoverFromPanic[T any](err *error, name Name, item T) {
	if r := recover(); r != nil {
		*err = &Error[T]{
			Timestamp: time.Now(),
			InputData: item,
			Err:       fmt.Errorf("%w: %v", ErrPanic, r),
			Path:      []Name{name},
		}
	}
}

func incomplete(name Name) error {
	return fmt.Errorf("%w: %q has no downstream", ErrIncompletePipe, name)
}

func unreachable(name Name) error {
	return fmt.Errorf("%w: %q ends the chain", ErrUnreachableStage, name)
}
