// Package pipeline is the public facade: it builds a linear chain of
// stages (origins, then tasks, then destinations), wires the queues
// between them, and drives the start/feed/join/drain lifecycle described
// in the specification. It composes the stage package (worker pools) and
// the broker package (named cross-pipeline routing).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowforge/pipeline/broker"
	"github.com/flowforge/pipeline/config"
	"github.com/flowforge/pipeline/observability"
	"github.com/flowforge/pipeline/queue"
	"github.com/flowforge/pipeline/stage"
)

// StageSpec describes one stage before it is frozen into a stage.Descriptor
// at Start. It is the Go-native replacement for the original's
// add_task(fn, num, chunk_size, setup, teardown, **kw) call, trading
// dynamic kwargs for an explicit Config/Setup/Teardown/Kwargs struct.
type StageSpec[T any] struct {
	Name      string
	Transform stage.Transform[T, T]
	Config    config.StageConfig
	Setup     stage.Setup
	Teardown  stage.Teardown
	Kwargs    map[string]any
}

type lifecycleState int32

const (
	stateBuilt lifecycleState = iota
	stateStarted
	stateJoined
	stateDrained
)

// Pipeline is a linear chain of stages plus the queues between them. T is
// the item type flowing through every stage — a deliberate simplification
// of the original's dynamically-typed items (see DESIGN.md): stages
// cannot change item type mid-chain without giving up static typing, which
// would be the un-idiomatic choice in Go.
type Pipeline[T any] struct {
	name string
	cfg  config.PipelineConfig

	buildMu      sync.Mutex
	origins      []StageSpec[T]
	tasks        []StageSpec[T]
	destinations []StageSpec[T]

	state atomic.Int32

	ctx      context.Context
	queues   []*queue.Queue[stage.Chunk[T]]
	pools    []*stage.Pool[T, T]
	observer observability.Observer
	sink     *broker.Sink

	joinOnce sync.Once
}

// New constructs an unnamed Pipeline. An unnamed Pipeline cannot be
// addressed by the package-level Send/SendMultiple helpers or another
// pipeline's broker-routed destination; use NewNamed for that.
func New[T any](cfg config.PipelineConfig) *Pipeline[T] {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		observer = observability.NoOpObserver{}
	}

	return &Pipeline[T]{
		cfg:      cfg,
		observer: observer,
	}
}

// NewNamed constructs a Pipeline and registers it with the process-wide
// default broker under name, making it addressable via Send,
// SendMultiple, and other named pipelines' broker-routed destinations.
//
// The Sink's Deliver hands each broker payload straight to Feed. Deliver
// runs in the broker's relay goroutine for name, behind a relay queue of
// BrokerConfig.RelayBufferSize, so a Flush that has returned does not mean
// every payload sent before it has already reached this pipeline's head
// queue.
func NewNamed[T any](ctx context.Context, name string, cfg config.PipelineConfig) *Pipeline[T] {
	p := New[T](cfg)
	p.name = name

	p.sink = &broker.Sink{
		Deliver: func(ctx context.Context, payload any) error {
			item, ok := payload.(T)
			if !ok {
				return fmt.Errorf("pipeline %q: broker payload type %T is not assignable to %T", name, payload, item)
			}
			return p.Feed(ctx, item)
		},
		Closed: p.headClosed,
	}

	brokerConfigured.Store(true)
	_ = ensureDefaultBroker(ctx).RegisterQueue(ctx, name, p.sink)

	return p
}

func (p *Pipeline[T]) headClosed() bool {
	if len(p.queues) == 0 {
		return false
	}
	return p.queues[0].IsClosed()
}

// AddOrigin appends a stage to the origins group. Origins run first
// regardless of the order other groups were declared in.
func (p *Pipeline[T]) AddOrigin(spec StageSpec[T]) error {
	return p.addStage(&p.origins, spec)
}

// AddTask appends a stage to the middle (task) group.
func (p *Pipeline[T]) AddTask(spec StageSpec[T]) error {
	return p.addStage(&p.tasks, spec)
}

// AddDestination appends a stage to the destinations group, which runs
// last regardless of declaration order.
func (p *Pipeline[T]) AddDestination(spec StageSpec[T]) error {
	return p.addStage(&p.destinations, spec)
}

func (p *Pipeline[T]) addStage(group *[]StageSpec[T], spec StageSpec[T]) error {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	if lifecycleState(p.state.Load()) != stateBuilt {
		return sequenceError("AddStage", ErrAlreadyStarted)
	}

	*group = append(*group, spec)
	return nil
}

// Start freezes the stage list (origins ++ tasks ++ destinations),
// allocates len(stages)+1 queues, and instantiates every stage's worker
// pool. Start may only be called once.
func (p *Pipeline[T]) Start(ctx context.Context) error {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	if !p.state.CompareAndSwap(int32(stateBuilt), int32(stateStarted)) {
		return sequenceError("Start", ErrAlreadyStarted)
	}

	p.ctx = ctx

	specs := make([]struct {
		spec StageSpec[T]
		role stage.Role
	}, 0, len(p.origins)+len(p.tasks)+len(p.destinations))
	for _, s := range p.origins {
		specs = append(specs, struct {
			spec StageSpec[T]
			role stage.Role
		}{s, stage.RoleOrigin})
	}
	for _, s := range p.tasks {
		specs = append(specs, struct {
			spec StageSpec[T]
			role stage.Role
		}{s, stage.RoleTask})
	}
	for _, s := range p.destinations {
		specs = append(specs, struct {
			spec StageSpec[T]
			role stage.Role
		}{s, stage.RoleDestination})
	}

	p.queues = make([]*queue.Queue[stage.Chunk[T]], len(specs)+1)
	for i := range p.queues {
		p.queues[i] = p.newQueue()
	}

	p.pools = make([]*stage.Pool[T, T], len(specs))
	for i, entry := range specs {
		desc := stage.Descriptor[T, T]{
			Name:       entry.spec.Name,
			Role:       entry.role,
			Transform:  entry.spec.Transform,
			Setup:      entry.spec.Setup,
			Teardown:   entry.spec.Teardown,
			Kwargs:     entry.spec.Kwargs,
			NumWorkers: stage.ResolveWorkers(entry.spec.Config.NumWorkers),
			ChunkSize:  stage.ResolveChunkSize(entry.spec.Config.ChunkSize),
		}

		observer := p.observer
		if entry.spec.Config.Observer != "" {
			if o, err := observability.GetObserver(entry.spec.Config.Observer); err == nil {
				observer = o
			}
		}

		p.pools[i] = stage.NewPool(ctx, desc, p.queues[i], p.queues[i+1], observer)
	}

	queuesSnapshot := p.queues
	runtime.AddCleanup(p, closeQueues[T], queuesSnapshot)

	p.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventPipelineStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "pipeline.Start",
		Data: map[string]any{
			"name":   p.name,
			"stages": len(specs),
			"queues": len(p.queues),
		},
	})

	return nil
}

func (p *Pipeline[T]) newQueue() *queue.Queue[stage.Chunk[T]] {
	if p.cfg.MaxSize <= 0 {
		return queue.NewUnbounded[stage.Chunk[T]]()
	}
	return queue.New[stage.Chunk[T]](p.cfg.MaxSize)
}

func closeQueues[T any](queues []*queue.Queue[stage.Chunk[T]]) {
	for _, q := range queues {
		if q != nil {
			q.Close()
		}
	}
}

// Feed wraps item in a single-item chunk and delegates to FeedChunk.
func (p *Pipeline[T]) Feed(ctx context.Context, item T) error {
	return p.FeedChunk(ctx, []T{item})
}

// FeedChunk enqueues a batch of items on the head queue.
func (p *Pipeline[T]) FeedChunk(ctx context.Context, items []T) error {
	if lifecycleState(p.state.Load()) == stateBuilt {
		return sequenceError("FeedChunk", ErrNotStarted)
	}

	p.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventPipelineFeed,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "pipeline.FeedChunk",
		Data:      map[string]any{"name": p.name, "items": len(items)},
	})

	return p.queues[0].Send(ctx, stage.NewChunk(items))
}

// Join signals end of processing (exactly NumWorkers sentinels per stage,
// stage by stage, never starting stage i+1 before stage i's workers have
// exited) and, once the final stage has joined, pushes the tail sentinel
// so AsCompleted terminates deterministically. Join is idempotent: a
// second call blocks until the first completes and then returns nil.
func (p *Pipeline[T]) Join(ctx context.Context) error {
	if lifecycleState(p.state.Load()) == stateBuilt {
		return sequenceError("Join", ErrNotStarted)
	}

	p.joinOnce.Do(func() { p.runJoin(ctx) })
	return nil
}

func (p *Pipeline[T]) runJoin(ctx context.Context) {
	for i, pool := range p.pools {
		input := p.queues[i]
		for range pool.NumWorkers() {
			_ = input.Send(ctx, stage.SentinelChunk[T]())
		}
		pool.Join()
	}

	p.state.Store(int32(stateJoined))

	p.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventPipelineJoin,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "pipeline.Join",
		Data:      map[string]any{"name": p.name},
	})

	tail := p.queues[len(p.queues)-1]
	_ = tail.Send(ctx, stage.SentinelChunk[T]())
}

// AsCompleted lazily drains the tail queue, yielding items from each
// chunk in the order they were received. If Join was not already called
// explicitly, AsCompleted starts it in the background on first use.
func (p *Pipeline[T]) AsCompleted(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		if lifecycleState(p.state.Load()) == stateBuilt {
			return
		}

		go func() { _ = p.Join(ctx) }()

		tail := p.queues[len(p.queues)-1]
		for {
			chunk, err := tail.Receive(ctx)
			if err != nil {
				return
			}
			if chunk.Sentinel {
				p.state.CompareAndSwap(int32(stateJoined), int32(stateDrained))
				p.observer.OnEvent(ctx, observability.Event{
					Type:      observability.EventPipelineDrained,
					Level:     observability.LevelInfo,
					Timestamp: time.Now(),
					Source:    "pipeline.AsCompleted",
					Data:      map[string]any{"name": p.name},
				})
				return
			}
			for _, item := range chunk.Items {
				if !yield(item) {
					return
				}
			}
		}
	}
}

// Err aggregates every WorkerError recorded across every stage's pool. It
// is only meaningful after Join has returned. A nil result means every
// worker in every stage reached its sentinel without a Transform failure.
func (p *Pipeline[T]) Err() error {
	var errs []error
	for _, pool := range p.pools {
		for _, werr := range pool.Errors() {
			errs = append(errs, werr)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Name returns the pipeline's broker-registration name, or "" if it was
// never named.
func (p *Pipeline[T]) Name() string {
	return p.name
}
