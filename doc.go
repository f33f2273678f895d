// Package pushz provides a push-based library for building stream processing pipelines in Go.
//
// # Overview
//
// pushz lets you declare a graph of small stages (transform, filter, branch,
// slice, aggregate) and then drive a finite or infinite sequence of items
// through it. Each item is pushed through the whole graph before the next one
// is pulled from the source, so every stage observes items strictly in
// arrival order.
//
// # Core Concepts
//
//   - Stage[T]: an immutable, reusable descriptor of one step
//   - Chain: an ordered composition of stages; chains nest and can be reused
//   - Terminal stages: Sink, Output, StopWhen, NewFork and Switch end a chain
//   - Compile: turns descriptors into fresh single-use nodes for one run
//   - Run: pulls a source (iter.Seq[T]) lazily and closes every stage at the end
//
// A chain that does not end in a terminal is an open building block. It can be
// embedded in other chains, and driving it on its own fails with
// ErrIncompletePipe. Stages placed after a terminal are rejected with
// ErrUnreachableStage. All topology errors are reported before the first item
// is pulled.
//
// # Stages
//
//   - Transform, Apply, Mutate, Enrich: one item in, one item out
//   - Filter, CountFilter: drop items failing a predicate
//   - Effect: observe items without changing them
//   - FlatMap: one item in, any number out
//   - Slice, Take, Drop: forward a window of arrival positions
//   - Until, While: forward until a predicate fires
//   - NewBranch: copy the stream to a side chain and continue
//   - NewFork, Switch: deliver items to several chains, or one by key
//   - Sink: hand items to a function
//   - Output: accumulate items (Fold, Reduce, ToSlice, Count, Into) into a Future
//   - StopWhen, StopAfter, StopAfterDuration: stop the whole pipeline
//
// # Early Termination
//
// A stage can end processing with two scopes. Finishing a scope (a Slice whose
// window is exhausted, Until) closes only the innermost enclosing branch; its
// siblings keep receiving items, and the driver stops pulling once no path is
// left. Aborting (a Slice with CloseAll, StopWhen) stops the whole pipeline.
// Neither is an error: Run returns normally and every output is resolved.
//
// # Results
//
// Outputs resolve their futures when they are closed, which happens exactly
// once at the end of every run, including runs that failed. Run returns them
// as Results:
//
//	res, err := pushz.Run(ctx, pushz.FromSlice(orders),
//	    pushz.NewBranch("big", pushz.Filter("over-100", isBig), pushz.Output("big", pushz.Count[Order]())),
//	    pushz.Output("total", pushz.Fold(addTotal, 0.0)),
//	)
//	if err != nil {
//	    return err
//	}
//	big, _ := pushz.Named[int](res, "big")
//	total, _ := pushz.Named[float64](res, "total")
//
// A Reduce over an empty stream resolves with ErrEmptyStream; the run itself
// still succeeds.
//
// # Error Handling
//
// Errors and panics from user functions stop the run. They are returned as
// *Error[T], which records the path of stage names leading to the failure
// and the item being processed. Stages are still closed.
//
// # Observability
//
// Pipeline adds metrics (metricz), tracing (tracez), lifecycle events (hookz)
// and debug logging (zap) on top of Run. Time is read from an injectable
// clock (clockz) so that time-based stages can be tested deterministically.
//
// # Concurrency
//
// A compiled pipeline runs on a single goroutine. Fanout traverses one source
// once and feeds several consumer chains on their own goroutines.
package pushz
