// Package broker is the Messaging Center: a single dispatch loop holding
// a name-to-relay directory for named pipelines, reachable from any
// pipeline in the process via Send. Grounded on orchestrate/hub.Hub's
// single-writer message loop (one goroutine owns the map; every mutation
// flows through its event channel) generalized from request/response
// agent messaging to register/send/forget broker semantics.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/flowforge/pipeline/config"
	"github.com/flowforge/pipeline/observability"
	"github.com/flowforge/pipeline/queue"
	"github.com/flowforge/pipeline/sentinel"
)

type dirEntry struct {
	relay      *queue.Queue[any]
	tombstoned bool
}

// Broker is the process-wide Messaging Center. The directory is mutated
// only inside run, making the dispatch loop its single writer; every
// other method just enqueues an event or allocates a relay. The dispatch
// loop never calls a consumer's Sink.Deliver itself — see relay — so a
// stalled consumer first blocks only its own relay goroutine. Its relay
// queue holds at most RelayBufferSize payloads; once that is full, the
// next send to it blocks the dispatch loop, and every destination, until
// the relay drains.
type Broker struct {
	incoming  *queue.Queue[event]
	directory map[string]*dirEntry
	observer  observability.Observer
	cfg       config.BrokerConfig

	// registerMu serializes relay-queue allocation in RegisterQueue. This
	// mirrors spec.md §5's "manager-backed-queue creation is serialized by
	// a mutex because the underlying manager is not safe for concurrent
	// allocation" — a Go channel make() needs no such protection. The
	// mutex covers only the allocation; the relay goroutine is started and
	// the registerEvent enqueued after it has been released.
	registerMu sync.Mutex
}

// New starts a Broker's dispatch loop in the background. ctx bounds the
// loop's lifetime; cancelling it is equivalent to Shutdown.
func New(ctx context.Context, cfg config.BrokerConfig) *Broker {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		observer = observability.NoOpObserver{}
	}

	b := &Broker{
		incoming:  queue.New[event](cfg.IncomingBufferSize),
		directory: make(map[string]*dirEntry),
		observer:  observer,
		cfg:       cfg,
	}

	go b.run(ctx)
	return b
}

// RegisterQueue addresses sink under name (spec.md §4.3 "Pipeline
// registration"). It allocates a manager-backed relay queue under
// registerMu, starts that pipeline's relay goroutine holding only a weak
// reference to sink, and finally enqueues the registerEvent that installs
// the relay in the dispatch loop's directory. From this point on, Send to
// name only ever reaches the relay queue — never sink.Deliver directly
// from the dispatch loop — so a stall inside Deliver holds up other
// destinations only once the relay queue (RelayBufferSize deep) is full.
func (b *Broker) RegisterQueue(ctx context.Context, name string, sink *Sink) error {
	b.registerMu.Lock()
	relay := queue.New[any](b.cfg.RelayBufferSize)
	b.registerMu.Unlock()

	go b.relay(ctx, name, relay, weak.Make(sink))

	return b.incoming.Send(ctx, registerEvent{name: name, relay: relay})
}

// relay is the per-pipeline relay thread (spec.md §4.3): it loops, taking
// payloads off the manager-backed queue and forwarding them to the
// consumer if it is still live, until it observes a sentinel.Token. It
// runs in the registering client's own process/goroutine, entirely
// decoupled from the broker's single dispatch loop.
func (b *Broker) relay(ctx context.Context, name string, relayQueue *queue.Queue[any], sinkRef weak.Pointer[Sink]) {
	for {
		payload, err := relayQueue.Receive(ctx)
		if err != nil {
			return
		}
		if _, isSentinel := payload.(sentinel.Token); isSentinel {
			return
		}

		sink := sinkRef.Value()
		if sink == nil || sink.Closed() {
			b.drop(ctx, name, "consumer is no longer reachable")
			continue
		}
		if err := sink.Deliver(ctx, payload); err != nil {
			b.drop(ctx, name, err.Error())
		}
	}
}

// Send forwards payload to the pipeline registered under dest. Sending to
// an unknown or forgotten name is dropped, never an error — per the
// broker's best-effort delivery contract. Send only enqueues a sendEvent
// on the broker's incoming queue; it blocks only while that queue is full,
// which can happen when the dispatch loop is itself blocked on a full
// relay queue.
func (b *Broker) Send(ctx context.Context, dest string, payload any) error {
	return b.incoming.Send(ctx, sendEvent{dest: dest, payload: payload})
}

// Forget tombstones name: subsequent Send calls to it are dropped, and its
// relay goroutine is told to exit.
func (b *Broker) Forget(ctx context.Context, name string) error {
	return b.incoming.Send(ctx, forgetEvent{name: name})
}

// Shutdown tears down the dispatch loop. Further calls to RegisterQueue,
// Send, or Forget return context.Canceled once the loop has exited.
func (b *Broker) Shutdown(ctx context.Context) error {
	return b.incoming.Send(ctx, shutdownEvent{})
}

// Flush is a synchronous barrier: it registers a throwaway name, sends a
// single marker payload to it, and blocks until that marker round-trips.
// Because the dispatch loop processes events in strict FIFO order, receipt
// of the marker proves every event enqueued before Flush was called has
// already been handed to its destination's relay.
func (b *Broker) Flush(ctx context.Context) error {
	local := queue.New[any](1)
	sink := &Sink{
		Deliver: func(ctx context.Context, payload any) error {
			return local.Send(ctx, payload)
		},
		Closed: local.IsClosed,
	}

	name := flushName()
	if err := b.RegisterQueue(ctx, name, sink); err != nil {
		return err
	}

	marker := sentinel.NewToken()
	if err := b.Send(ctx, name, marker); err != nil {
		return err
	}

	received, err := local.Receive(ctx)
	if err != nil {
		return err
	}
	if received != marker {
		return fmt.Errorf("broker: flush marker mismatch, got %v want %v", received, marker)
	}

	local.Close()
	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerFlush,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "broker.Flush",
		Data:      map[string]any{"name": name},
	})
	return b.Forget(ctx, name)
}

func (b *Broker) run(ctx context.Context) {
	defer b.incoming.Close()
	for {
		ev, err := b.incoming.Receive(ctx)
		if err != nil {
			b.teardown(ctx)
			return
		}

		switch e := ev.(type) {
		case registerEvent:
			b.handleRegister(ctx, e)
		case sendEvent:
			b.handleSend(ctx, e)
		case forgetEvent:
			b.handleForget(ctx, e)
		case shutdownEvent:
			b.teardown(ctx)
			return
		}
	}
}

func (b *Broker) handleRegister(ctx context.Context, e registerEvent) {
	b.directory[e.name] = &dirEntry{relay: e.relay}
	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerRegister,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "broker.run",
		Data:      map[string]any{"name": e.name},
	})
}

func (b *Broker) handleForget(ctx context.Context, e forgetEvent) {
	if ent, ok := b.directory[e.name]; ok && !ent.tombstoned {
		ent.tombstoned = true
		_ = ent.relay.Send(ctx, sentinel.NewToken())
	}
	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerForget,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "broker.run",
		Data:      map[string]any{"name": e.name},
	})
}

// handleSend is the dispatch loop's only per-event work for a sendEvent:
// look dest up in the directory and push payload onto its relay queue.
// It never calls a consumer's Sink.Deliver — that happens later, in the
// relay goroutine RegisterQueue started — so handleSend itself can only
// ever be slowed down by dest's own relay queue filling up, never by
// dest's consumer being slow to drain it.
func (b *Broker) handleSend(ctx context.Context, e sendEvent) {
	ent, ok := b.directory[e.dest]
	if !ok || ent.tombstoned {
		b.drop(ctx, e.dest, "unknown or forgotten destination")
		return
	}

	if err := ent.relay.Send(ctx, e.payload); err != nil {
		b.drop(ctx, e.dest, err.Error())
		return
	}

	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerSend,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "broker.run",
		Data:      map[string]any{"dest": e.dest},
	})
}

func (b *Broker) drop(ctx context.Context, dest, reason string) {
	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerDrop,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "broker.run",
		Data:      map[string]any{"dest": dest, "reason": reason},
	})
}

func (b *Broker) teardown(ctx context.Context) {
	for name, ent := range b.directory {
		if !ent.tombstoned {
			ent.tombstoned = true
			_ = ent.relay.Send(ctx, sentinel.NewToken())
		}
		delete(b.directory, name)
	}
	b.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventBrokerShutdown,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "broker.run",
	})
}
