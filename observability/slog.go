package observability

import (
	"context"
	"log/slog"
)

// SlogObserver forwards events to a log/slog.Logger, mapping Level to the
// matching slog level and flattening Data into top-level attributes so it
// reads naturally in both the text and JSON slog handlers.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver wraps logger. Pass slog.Default() to use whatever handler
// the process has installed globally.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

// OnEvent logs event at its mapped slog level, message set to event.Type.
// event.Source and event.Timestamp are always attached; Data's keys are
// flattened rather than nested under a "data" attribute, since nearly every
// Data map in this module is small (stage name, worker ordinal, a single
// payload count or error string) and reads better as top-level fields in a
// text handler.
func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+2)
	attrs = append(attrs,
		slog.String("source", event.Source),
		slog.Time("ts", event.Timestamp),
	)
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
