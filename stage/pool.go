package stage

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/flowforge/pipeline/observability"
	"github.com/flowforge/pipeline/queue"
)

// Pool is the instantiated worker pool for one Descriptor: NumWorkers
// goroutines sharing an input and output queue.
type Pool[TIn, TOut any] struct {
	desc     Descriptor[TIn, TOut]
	input    *queue.Queue[Chunk[TIn]]
	output   *queue.Queue[Chunk[TOut]]
	observer observability.Observer

	wg      sync.WaitGroup
	errMu   sync.Mutex
	errs    []*WorkerError
}

// ResolveWorkers applies the "<=0 means NumCPU" rule from the stage
// config, directly mirroring calculateWorkerCount's MaxWorkers==0
// auto-detect branch (without the I/O-bound 2x multiplier, since stage
// workers here are not specifically HTTP-call-bound).
func ResolveWorkers(n int) int {
	if n > 0 {
		return n
	}
	if cpu := runtime.NumCPU(); cpu > 0 {
		return cpu
	}
	return 1
}

// ResolveChunkSize applies the "<=0 means 1" rule.
func ResolveChunkSize(n int) int {
	if n > 0 {
		return n
	}
	return 1
}

// NewPool starts desc.NumWorkers goroutines draining input and writing to
// output. desc.NumWorkers and desc.ChunkSize must already be resolved
// (> 0); callers normally get a Descriptor via the pipeline package's
// stage builders, which resolve both before calling NewPool.
func NewPool[TIn, TOut any](
	ctx context.Context,
	desc Descriptor[TIn, TOut],
	input *queue.Queue[Chunk[TIn]],
	output *queue.Queue[Chunk[TOut]],
	observer observability.Observer,
) *Pool[TIn, TOut] {
	p := &Pool[TIn, TOut]{
		desc:     desc,
		input:    input,
		output:   output,
		observer: observer,
	}

	observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventStageStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "stage.NewPool",
		Data: map[string]any{
			"stage":       desc.Name,
			"role":        desc.Role.String(),
			"num_workers": desc.NumWorkers,
			"chunk_size":  desc.ChunkSize,
		},
	})

	p.wg.Add(desc.NumWorkers)
	for i := range desc.NumWorkers {
		go p.runWorker(ctx, i)
	}

	return p
}

// NumWorkers returns the resolved worker count this pool was started
// with, so callers (the pipeline package's termination protocol) know
// exactly how many sentinel chunks to push before calling Join.
func (p *Pool[TIn, TOut]) NumWorkers() int {
	return p.desc.NumWorkers
}

// Join blocks until every worker has exited. Callers are responsible for
// first pushing exactly NumWorkers sentinel chunks into input (the
// pipeline package's Join does this, one stage at a time, per the
// termination protocol).
func (p *Pool[TIn, TOut]) Join() {
	p.wg.Wait()
}

// Errors returns the WorkerErrors collected across every worker, in the
// order workers reported them (not input order — workers run
// concurrently). An empty slice means every worker reached its sentinel
// without a Transform failure.
func (p *Pool[TIn, TOut]) Errors() []*WorkerError {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	out := make([]*WorkerError, len(p.errs))
	copy(out, p.errs)
	return out
}

func (p *Pool[TIn, TOut]) recordError(err *WorkerError) {
	p.errMu.Lock()
	p.errs = append(p.errs, err)
	p.errMu.Unlock()
}
