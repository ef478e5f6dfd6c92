package broker

import "context"

// Sink is a registered pipeline's delivery surface: just enough for the
// per-pipeline relay goroutine to hand a payload off and check liveness,
// so the broker never needs to know the pipeline's item type. Pipelines
// construct a Sink once and keep it alive for as long as they want to stay
// addressable; RegisterQueue only ever hands the relay a weak.Pointer to
// it, which is the Go translation of the original's weak-referenced
// consumer handle — a pipeline that becomes unreachable is not kept alive
// by the relay, and the relay exits the next time it observes that.
//
// Deliver is only ever called from a pipeline's own relay goroutine (see
// Broker.relay), never from the dispatch loop, so a Deliver that blocks —
// because the destination's head queue is full — stalls that one relay
// first. Once that relay's queue (BrokerConfig.RelayBufferSize deep) is
// full as well, the dispatch loop blocks on it and every destination
// waits.
type Sink struct {
	Deliver func(ctx context.Context, payload any) error
	Closed  func() bool
}
