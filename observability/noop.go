package observability

import "context"

// NoOpObserver is the zero value Observer: every pipeline and broker in
// this module falls back to it when its configured Observer name is empty
// or not registered (a stage with no Observer name uses its pipeline's),
// so running without observability costs nothing beyond the interface call.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
