// Package stage implements one stage of a pipeline: its static
// configuration (a Descriptor) and the worker pool that executes it (a
// Pool). A stage reads chunks from an input queue, runs a Transform over
// every item, and writes chunks to an output queue, until it has consumed
// one sentinel chunk per worker.
package stage

import (
	"context"
	"iter"
)

// Role identifies where in a Pipeline's ordering a stage belongs.
// Declaration order within a Role is preserved; Role order is fixed:
// origins run first, then tasks, then destinations.
type Role int

const (
	RoleOrigin Role = iota
	RoleTask
	RoleDestination
)

func (r Role) String() string {
	switch r {
	case RoleOrigin:
		return "origin"
	case RoleTask:
		return "task"
	case RoleDestination:
		return "destination"
	default:
		return "unknown"
	}
}

// Transform processes one item, given the stage's per-worker persistent
// state (nil if Setup is unset) and its bound keyword arguments. It
// returns an iterator over zero or more produced values:
//
//   - a nil Seq (or one that yields nothing) drops the item,
//   - a Seq yielding exactly one value is the single-result case,
//   - a Seq yielding many values is the "lazy sequence"/generator case.
//
// A non-nil error is a fatal transform failure: the worker that hit it
// logs the failure and exits without finishing its remaining input.
type Transform[TIn, TOut any] func(
	ctx context.Context,
	item TIn,
	persistent any,
	kwargs map[string]any,
) (iter.Seq[TOut], error)

// Setup runs once per worker before it consumes any chunks, producing the
// worker's persistent state (passed to every Transform call and to
// Teardown). A nil Setup means no persistent state.
type Setup func(ctx context.Context) (any, error)

// Teardown runs once per worker after it has observed its sentinel,
// receiving the value Setup returned (or nil if Setup was unset).
type Teardown func(persistent any)

// Descriptor is one stage's frozen, homogeneous configuration: every
// worker in the stage's Pool shares the same Transform, Setup, Teardown,
// and Kwargs.
type Descriptor[TIn, TOut any] struct {
	// Name identifies the stage in logs and worker-error context.
	Name string

	Role Role

	Transform Transform[TIn, TOut]
	Setup     Setup
	Teardown  Teardown

	// Kwargs is bound to every Transform invocation.
	Kwargs map[string]any

	// NumWorkers is resolved (never <= 0) before Pool construction.
	NumWorkers int

	// ChunkSize is resolved (never <= 0) before Pool construction.
	ChunkSize int
}
