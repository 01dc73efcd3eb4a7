package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStart    EventType = "start"
	EventStop     EventType = "stop"
	EventInput    EventType = "input"
	EventProgress EventType = "progress"
	EventMatch    EventType = "match"
	EventMismatch EventType = "mismatch"
	EventTimeout  EventType = "timeout"
	EventReset    EventType = "reset"
)

// Event is a single observable step of a listener.
// Position is the position after the step for progress and match events, the
// position before the step for input events, and the position that was lost
// for mismatch, timeout and reset events.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Sequence  string    `json:"sequence,omitempty"`
	Position  int       `json:"position"`
	Total     int       `json:"total"`
	Symbol    string    `json:"symbol,omitempty"`
	Alt       string    `json:"alt,omitempty"`
	Source    Source    `json:"source,omitempty"`
}

// Callbacks are the user-facing notifications of a listener.
// Every field is optional; nil callbacks are skipped.
type Callbacks struct {
	OnMatch    func()
	OnProgress func(position, total int)
	OnMismatch func()
	OnTimeout  func()
	OnInput    func(symbol string, source Source)
}

// Dispatch invokes the callback matching the event type.
func (c Callbacks) Dispatch(e *Event) {
	switch e.Type {
	case EventInput:
		if c.OnInput != nil {
			c.OnInput(e.Symbol, e.Source)
		}
	case EventProgress:
		if c.OnProgress != nil {
			c.OnProgress(e.Position, e.Total)
		}
	case EventMatch:
		if c.OnMatch != nil {
			c.OnMatch()
		}
	case EventMismatch:
		if c.OnMismatch != nil {
			c.OnMismatch()
		}
	case EventTimeout:
		if c.OnTimeout != nil {
			c.OnTimeout()
		}
	}
}

// LifecycleHooks defines callbacks for listener observability.
type LifecycleHooks struct {
	OnStart    func(context.Context, *Event)
	OnStop     func(context.Context, *Event)
	OnInput    func(context.Context, *Event)
	OnProgress func(context.Context, *Event)
	OnMatch    func(context.Context, *Event)
	OnMismatch func(context.Context, *Event)
	OnTimeout  func(context.Context, *Event)
	OnReset    func(context.Context, *Event)
}

// Fire invokes the hook matching the event type, if any.
func (h LifecycleHooks) Fire(ctx context.Context, e *Event) {
	var fn func(context.Context, *Event)
	switch e.Type {
	case EventStart:
		fn = h.OnStart
	case EventStop:
		fn = h.OnStop
	case EventInput:
		fn = h.OnInput
	case EventProgress:
		fn = h.OnProgress
	case EventMatch:
		fn = h.OnMatch
	case EventMismatch:
		fn = h.OnMismatch
	case EventTimeout:
		fn = h.OnTimeout
	case EventReset:
		fn = h.OnReset
	}
	if fn != nil {
		fn(ctx, e)
	}
}

// HooksFunc builds LifecycleHooks that route every event type to fn.
func HooksFunc(fn func(context.Context, *Event)) LifecycleHooks {
	return LifecycleHooks{
		OnStart:    fn,
		OnStop:     fn,
		OnInput:    fn,
		OnProgress: fn,
		OnMatch:    fn,
		OnMismatch: fn,
		OnTimeout:  fn,
		OnReset:    fn,
	}
}
