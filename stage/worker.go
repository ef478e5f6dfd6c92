package stage

import (
	"context"
	"time"

	"github.com/flowforge/pipeline/observability"
)

// runWorker is the stage worker loop (spec §4.1): setup once, drain
// chunks until the sentinel, run Transform over every item accumulating
// an outgoing buffer, flush at ChunkSize, flush the trailing partial
// chunk after the sentinel, then teardown.
//
// Directly grounded on processWorker's job-loop shape (read until the
// channel signals done, process, write results) generalized from "one
// item in, one indexed result out" to "one chunk in, zero-or-more chunks
// out, bounded-by-ChunkSize batching".
func (p *Pool[TIn, TOut]) runWorker(ctx context.Context, ordinal int) {
	defer p.wg.Done()

	p.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventWorkerStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "stage.runWorker",
		Data: map[string]any{"stage": p.desc.Name, "worker": ordinal},
	})

	var persistent any
	if p.desc.Setup != nil {
		state, err := p.desc.Setup(ctx)
		if err != nil {
			// No item is in flight yet, so WorkerError.Item stays nil here.
			p.recordError(&WorkerError{Stage: p.desc.Name, Worker: ordinal, Err: err})
			return
		}
		persistent = state
	}

	var outgoing []TOut

	flush := func() {
		if len(outgoing) == 0 {
			return
		}
		if p.output.IsClosed() {
			outgoing = nil
			return
		}
		if err := p.output.Send(ctx, NewChunk(outgoing)); err != nil {
			outgoing = nil
			return
		}
		outgoing = nil
	}

	for {
		if p.input.IsClosed() {
			break
		}

		in, err := p.input.Receive(ctx)
		if err != nil {
			break
		}
		if in.Sentinel {
			break
		}

		for _, item := range in.Items {
			results, err := p.desc.Transform(ctx, item, persistent, p.desc.Kwargs)
			if err != nil {
				p.recordError(&WorkerError{Stage: p.desc.Name, Worker: ordinal, Item: item, Err: err})
				p.observer.OnEvent(ctx, observability.Event{
					Type:      observability.EventWorkerError,
					Level:     observability.LevelError,
					Timestamp: time.Now(),
					Source:    "stage.runWorker",
					Data: map[string]any{
						"stage":  p.desc.Name,
						"worker": ordinal,
						"error":  err.Error(),
					},
				})
				return
			}

			if results != nil {
				for value := range results {
					outgoing = append(outgoing, value)
					if len(outgoing) >= p.desc.ChunkSize {
						flush()
					}
				}
			}

			p.observer.OnEvent(ctx, observability.Event{
				Type:      observability.EventWorkerItem,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "stage.runWorker",
				Data: map[string]any{"stage": p.desc.Name, "worker": ordinal},
			})

			if len(outgoing) >= p.desc.ChunkSize {
				flush()
			}
		}
	}

	flush()

	if p.desc.Teardown != nil {
		p.desc.Teardown(persistent)
		p.observer.OnEvent(ctx, observability.Event{
			Type:      observability.EventStageTeardown,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "stage.runWorker",
			Data: map[string]any{"stage": p.desc.Name, "worker": ordinal},
		})
	}

	p.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventWorkerExit,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "stage.runWorker",
		Data: map[string]any{"stage": p.desc.Name, "worker": ordinal},
	})
}
