package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
	EventCrash EventType = "crash"
)

// Event is one lifecycle event exported to external analytics systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	AppID      string    `json:"app_id"`
}

// Sink is a destination for history events. Implementations must be safe
// for concurrent use; send failures are dropped by callers, never fatal.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
