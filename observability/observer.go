// Package observability is the event bus threading through stage, pipeline,
// and broker: every worker spawn, chunk flush, registration, and drop is an
// Event handed to whatever Observer the caller configured. Severity numbers
// follow the OTel SeverityNumber ranges so an Event can be forwarded to an
// OTel collector without a translation layer.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event's severity, expressed on the OTel SeverityNumber scale
// (1-24) rather than slog's four-value enum, so a caller that does want OTel
// can read Level directly off the wire format.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG range (5-8)
	LevelInfo    Level = 9  // OTel INFO range (9-12)
	LevelWarning Level = 13 // OTel WARN range (13-16)
	LevelError   Level = 17 // OTel ERROR range (17-20)
)

// String renders the OTel severity text for l, per the OTel spec's
// SeverityNumber-to-SeverityText table.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps l onto slog's coarser four-value scale, collapsing OTel's
// sixteen DEBUG/INFO/WARN/ERROR sub-ranges down to one slog.Level apiece.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names what happened: "worker.start", "pipeline.join",
// "broker.send", and so on. The constants for every emitting package live
// together in this package's events.go; EventType itself carries no
// behavior beyond being a string a handler can switch on or log verbatim.
type EventType string

// Event is one occurrence worth reporting. The shape mirrors an OTel
// LogRecord closely enough that a bridge Observer could populate one field
// for field: Type is the record's event name, Level its SeverityNumber,
// Source its InstrumentationScope, and Data its Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer is anything that wants to know when an Event happens. OnEvent
// must not block the caller for long and must not panic: stage workers,
// the pipeline's join goroutine, and the broker's single dispatch loop all
// call it inline, so a slow or panicking Observer becomes a slow or dead
// pipeline.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
