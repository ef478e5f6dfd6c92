package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowforge/pipeline/queue"
)

func TestQueue_SendReceive(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](4)

	if err := q.Send(ctx, 42); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	got, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Receive() = %d, want 42", got)
	}
}

func TestQueue_TryReceive_Empty(t *testing.T) {
	q := queue.New[string](1)

	if _, ok := q.TryReceive(); ok {
		t.Fatal("TryReceive() on an empty queue should report ok=false")
	}
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := queue.New[int](1)
	q.Close()
	q.Close() // must not panic on double close

	if !q.IsClosed() {
		t.Fatal("IsClosed() should be true after Close()")
	}
}

func TestQueue_SendAfterClose(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](1)
	q.Close()

	if err := q.Send(ctx, 1); err != context.Canceled {
		t.Errorf("Send() after Close() = %v, want context.Canceled", err)
	}
}

func TestQueue_ReceiveRespectsContext(t *testing.T) {
	q := queue.New[int](0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Receive() on an empty, never-filled queue = %v, want DeadlineExceeded", err)
	}
}

func TestUnbounded_SendNeverBlocks(t *testing.T) {
	ctx := context.Background()
	q := queue.NewUnbounded[int]()

	for i := range 1000 {
		if err := q.Send(ctx, i); err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
	}

	for i := range 1000 {
		got, err := q.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if got != i {
			t.Fatalf("Receive() = %d, want %d", got, i)
		}
	}
}

func TestUnbounded_CloseDrainsPending(t *testing.T) {
	ctx := context.Background()
	q := queue.NewUnbounded[int]()

	for i := range 5 {
		if err := q.Send(ctx, i); err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
	}
	q.Close()

	for i := range 5 {
		got, err := q.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if got != i {
			t.Fatalf("Receive() = %d, want %d", got, i)
		}
	}

	if _, err := q.Receive(ctx); err != context.Canceled {
		t.Errorf("Receive() after drain = %v, want context.Canceled", err)
	}
}
