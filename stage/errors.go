package stage

import "fmt"

// WorkerError reports a fatal Transform failure: the stage name, the
// 0-based ordinal of the worker that hit it, the item that was being
// processed when Transform returned an error, and the underlying error.
// Per the transform contract, a worker that returns one of these has
// already exited — the pipeline no longer guarantees completion of that
// stage.
//
// Item is stored as any rather than typed over TIn: WorkerError is shared
// across every stage regardless of its item type (Pool[TIn, TOut].Errors
// returns a plain []*WorkerError), so there is no single concrete type
// parameter to give it.
type WorkerError struct {
	Stage  string
	Worker int
	Item   any
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("stage %q worker %d: item %v: %v", e.Stage, e.Worker, e.Item, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
