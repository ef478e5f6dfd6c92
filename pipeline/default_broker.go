package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowforge/pipeline/broker"
	"github.com/flowforge/pipeline/config"
)

// The default broker is a process-wide singleton, lazily created the
// first time a named Pipeline is constructed. configured flips true at
// that point; Send/SendMultiple consult it so a process that never named
// a pipeline gets ErrBrokerNotConfigured instead of silently talking to
// a broker nobody is listening on.
var (
	brokerOnce       sync.Once
	defaultBroker    *broker.Broker
	brokerConfigured atomic.Bool
)

func ensureDefaultBroker(ctx context.Context) *broker.Broker {
	brokerOnce.Do(func() {
		defaultBroker = broker.New(ctx, config.DefaultBrokerConfig())
	})
	return defaultBroker
}

// Send routes payload to the pipeline registered under dest through the
// default broker. It fails with ErrBrokerNotConfigured if no named
// Pipeline has ever been constructed in this process.
func Send(ctx context.Context, dest string, payload any) error {
	if !brokerConfigured.Load() {
		return ErrBrokerNotConfigured
	}
	return ensureDefaultBroker(ctx).Send(ctx, dest, payload)
}

// SendMultiple routes every payload in items to dest, in order.
func SendMultiple(ctx context.Context, dest string, items []any) error {
	if !brokerConfigured.Load() {
		return ErrBrokerNotConfigured
	}
	b := ensureDefaultBroker(ctx)
	for _, item := range items {
		if err := b.Send(ctx, dest, item); err != nil {
			return err
		}
	}
	return nil
}

// Flush blocks until every Send/SendMultiple issued before this call has
// been handed by the default broker to its destination's relay queue. It
// does not wait for the relay to deliver those payloads into the
// destination pipeline's head queue.
func Flush(ctx context.Context) error {
	if !brokerConfigured.Load() {
		return ErrBrokerNotConfigured
	}
	return ensureDefaultBroker(ctx).Flush(ctx)
}
