package stage_test

import (
	"context"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowforge/pipeline/observability"
	"github.com/flowforge/pipeline/queue"
	"github.com/flowforge/pipeline/stage"
)

func single[T any](v T) iter.Seq[T] {
	return func(yield func(T) bool) {
		yield(v)
	}
}

func TestPool_SingleValueTransform(t *testing.T) {
	ctx := context.Background()
	input := queue.New[stage.Chunk[int]](4)
	output := queue.New[stage.Chunk[int]](8)

	desc := stage.Descriptor[int, int]{
		Name:       "increment",
		Role:       stage.RoleTask,
		NumWorkers: 2,
		ChunkSize:  1,
		Transform: func(ctx context.Context, item int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return single(item + 1), nil
		},
	}

	pool := stage.NewPool(ctx, desc, input, output, observability.NoOpObserver{})

	for i := range 5 {
		if err := input.Send(ctx, stage.NewChunk([]int{i})); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	for range desc.NumWorkers {
		if err := input.Send(ctx, stage.SentinelChunk[int]()); err != nil {
			t.Fatalf("sentinel Send() error = %v", err)
		}
	}

	pool.Join()
	output.Send(ctx, stage.SentinelChunk[int]())

	got := map[int]bool{}
	for {
		chunk, err := output.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if chunk.Sentinel {
			break
		}
		for _, v := range chunk.Items {
			got[v] = true
		}
	}

	for i := 1; i <= 5; i++ {
		if !got[i] {
			t.Errorf("missing expected output %d", i)
		}
	}
	if len(pool.Errors()) != 0 {
		t.Errorf("unexpected worker errors: %v", pool.Errors())
	}
}

func TestPool_WorkerCountMatchesSentinels(t *testing.T) {
	ctx := context.Background()
	input := queue.New[stage.Chunk[int]](8)
	output := queue.New[stage.Chunk[int]](20)

	var active atomic.Int32
	var maxSeen atomic.Int32

	desc := stage.Descriptor[int, int]{
		Name:       "noop",
		NumWorkers: 4,
		ChunkSize:  1,
		Transform: func(ctx context.Context, item int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			n := active.Add(1)
			for {
				old := maxSeen.Load()
				if n <= old || maxSeen.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			return single(item), nil
		},
	}

	pool := stage.NewPool(ctx, desc, input, output, observability.NoOpObserver{})

	for i := range 20 {
		_ = input.Send(ctx, stage.NewChunk([]int{i}))
	}
	for range desc.NumWorkers {
		_ = input.Send(ctx, stage.SentinelChunk[int]())
	}

	pool.Join()

	if maxSeen.Load() == 0 {
		t.Fatal("no worker ever ran a transform")
	}
}

func TestPool_SetupTeardownWitness(t *testing.T) {
	ctx := context.Background()
	input := queue.New[stage.Chunk[string]](4)
	output := queue.New[stage.Chunk[string]](4)

	var teardownCount atomic.Int32

	desc := stage.Descriptor[string, string]{
		Name:       "witness",
		NumWorkers: 1,
		ChunkSize:  1,
		Setup: func(ctx context.Context) (any, error) {
			return map[string]string{}, nil
		},
		Transform: func(ctx context.Context, item string, persistent any, kwargs map[string]any) (iter.Seq[string], error) {
			state := persistent.(map[string]string)
			state["sekrit"] = item
			return single(item), nil
		},
		Teardown: func(persistent any) {
			state := persistent.(map[string]string)
			if state["sekrit"] != "Hello" {
				panic("teardown observed unexpected persistent state")
			}
			teardownCount.Add(1)
		},
	}

	pool := stage.NewPool(ctx, desc, input, output, observability.NoOpObserver{})

	_ = input.Send(ctx, stage.NewChunk([]string{"Hello"}))
	_ = input.Send(ctx, stage.SentinelChunk[string]())

	pool.Join()

	if teardownCount.Load() != 1 {
		t.Errorf("teardown ran %d times, want 1", teardownCount.Load())
	}
}

func TestPool_TransformErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	input := queue.New[stage.Chunk[int]](4)
	output := queue.New[stage.Chunk[int]](4)

	boom := assertError{"boom"}
	desc := stage.Descriptor[int, int]{
		Name:       "failing",
		NumWorkers: 1,
		ChunkSize:  1,
		Transform: func(ctx context.Context, item int, persistent any, kwargs map[string]any) (iter.Seq[int], error) {
			return nil, boom
		},
	}

	pool := stage.NewPool(ctx, desc, input, output, observability.NoOpObserver{})

	_ = input.Send(ctx, stage.NewChunk([]int{1}))
	pool.Join()

	errs := pool.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d worker errors, want 1", len(errs))
	}
	if errs[0].Stage != "failing" || errs[0].Worker != 0 || errs[0].Item != 1 {
		t.Errorf("unexpected WorkerError context: %+v", errs[0])
	}
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
