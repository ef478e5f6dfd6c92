package config

// BrokerConfig controls the Messaging Center's internal buffering.
type BrokerConfig struct {
	// IncomingBufferSize bounds the broker's single control-event queue.
	IncomingBufferSize int `json:"incoming_buffer_size"`

	// RelayBufferSize bounds each per-pipeline relay's manager-backed
	// queue (spec.md §4.3 "Pipeline registration"). This is what
	// decouples the broker's single dispatch loop from a slow or stalled
	// consumer: handleSend only ever pushes onto a destination's relay
	// queue, never onto the consumer's own head queue directly, so a
	// consumer with a full/bounded head queue blocks its own relay
	// goroutine first. Once RelayBufferSize payloads are waiting in that
	// relay queue, handleSend blocks too, and with it the dispatch loop.
	RelayBufferSize int `json:"relay_buffer_size"`

	// Observer names a registered observability.Observer ("noop", "slog", ...).
	Observer string `json:"observer"`
}

// DefaultBrokerConfig returns sensible defaults: a generously buffered
// incoming queue so register/send/forget calls rarely block, a relay
// buffer deep enough to absorb ordinary bursts without the dispatch loop
// stalling on it, and structured logging.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		IncomingBufferSize: 256,
		RelayBufferSize:    64,
		Observer:           "slog",
	}
}

func (c *BrokerConfig) Merge(source *BrokerConfig) {
	if source.IncomingBufferSize != 0 {
		c.IncomingBufferSize = source.IncomingBufferSize
	}
	if source.RelayBufferSize != 0 {
		c.RelayBufferSize = source.RelayBufferSize
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
