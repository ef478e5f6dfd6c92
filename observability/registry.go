package observability

import (
	"fmt"
	"log/slog"
	"sync"
)

var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
	mutex sync.RWMutex
)

// GetObserver resolves name to a registered Observer. This is what lets
// config.StageConfig.Observer, config.PipelineConfig.Observer, and
// config.BrokerConfig.Observer carry a plain string (and round-trip through
// JSON) instead of an Observer value: "noop" and "slog" are registered by
// default, covering every config type's documented default.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver installs observer under name, replacing whatever was
// there. Intended for process init: a caller that wants a custom Observer
// addressable from config (e.g. a test collector, or an OTel bridge) registers
// it once under a name and then points Observer fields at that name.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}
