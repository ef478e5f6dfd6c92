package observability

import "context"

// MultiObserver broadcasts one Event to several Observers in turn, the way
// a caller that wants both an slog trail and an in-memory test collector
// wires both up without either Observer knowing about the other.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver builds a MultiObserver over observers, dropping any nil
// entries so a caller assembling the list conditionally (e.g. only adding a
// file logger when a flag is set) doesn't have to filter it first.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

// OnEvent delivers event to every wrapped Observer in registration order.
func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// Len reports how many non-nil Observers m fans out to.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}
