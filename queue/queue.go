// Package queue provides the bounded, generic channel wrapper used between
// pipeline stages and inside the broker's relays. It is the owned-memory
// substitute for the original design's weak-referenced, possibly
// cross-process queues: a Queue exposes an explicit Close, and every
// operation races against a dedicated done channel rather than the
// underlying data channel, which is the Go translation of "the worker
// checks that its queue is still reachable; if the referent is gone, the
// worker exits cleanly" — without ever closing a channel more than one
// goroutine might be sending on.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO channel wrapper with an explicit, idempotent
// Close. Zero value is not usable; construct with New or NewUnbounded.
type Queue[T any] struct {
	ch     chan T // always the receive side
	sendCh chan T // send side for an unbounded Queue; nil means ch is also the send side

	// done is closed exactly once by Close and never otherwise written to.
	// Send and Receive select on done instead of relying on ch being
	// closed, so a stage's output queue — written concurrently by every
	// worker in that stage's pool — can be closed by an unrelated
	// finalizer goroutine (see pipeline.closeQueues) without any sender
	// ever observing a "send on closed channel" panic: only Close ever
	// closes done, and closing it is safe no matter how many Sends are
	// in flight.
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// sendTarget returns the channel Send should write to.
func (q *Queue[T]) sendTarget() chan T {
	if q.sendCh != nil {
		return q.sendCh
	}
	return q.ch
}

// New creates a Queue buffered to size. A non-positive size yields an
// unbuffered channel (sends block until a receiver is ready), which is the
// correct translation of "bounded by max_size" for max_size == 0 in the
// original design; callers wanting a genuinely unbounded queue should use
// NewUnbounded instead.
func New[T any](size int) *Queue[T] {
	if size < 0 {
		size = 0
	}
	return &Queue[T]{ch: make(chan T, size), done: make(chan struct{})}
}

// Send pushes an item, blocking until space is available, ctx is
// cancelled, or the queue is closed. Returns ctx.Err() or
// context.Canceled (if closed) on those paths. A Send that starts after
// Close has returned always reports context.Canceled, even when buffer
// space is free. Send never panics: it only ever reads done, and done is
// only ever closed, never written to, so it is always safe to select
// against.
func (q *Queue[T]) Send(ctx context.Context, item T) error {
	select {
	case <-q.done:
		return context.Canceled
	default:
	}

	select {
	case q.sendTarget() <- item:
		return nil
	case <-q.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until an item is available, ctx is cancelled, or the
// queue is closed (returning the zero value and context.Canceled in the
// latter case). An item already buffered before Close is always delivered
// first: Receive tries a non-blocking read of ch before falling into the
// select, and re-checks ch once more after done fires, so a Send that won
// its own race against Close is never stranded behind a closed queue.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case item := <-q.ch:
		return item, nil
	default:
	}

	select {
	case item := <-q.ch:
		return item, nil
	case <-q.done:
		select {
		case item := <-q.ch:
			return item, nil
		default:
			return zero, context.Canceled
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryReceive performs a non-blocking receive, returning ok == false if no
// item is immediately available.
func (q *Queue[T]) TryReceive() (item T, ok bool) {
	select {
	case item, ok = <-q.ch:
		return item, ok
	default:
		var zero T
		return zero, false
	}
}

// Close idempotently signals the queue closed. Further Send calls return
// context.Canceled; pending or future Receive calls drain whatever was
// already buffered, then observe the closed signal. Unlike closing the
// data channel directly, Close never races with a concurrent Send: done
// is a dedicated signal channel with exactly one writer (Close itself,
// guarded by sync.Once), so multiple workers sharing this Queue as their
// output can keep sending right up until Close runs without risking a
// panic.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}

// IsClosed reports whether Close has been called. This is the "weak
// handle" liveness check workers perform before touching a queue; it is
// advisory only — Send and Receive are always safe to call regardless of
// IsClosed's result, since they race against done directly.
func (q *Queue[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len reports the number of items currently buffered.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
