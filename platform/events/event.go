// Package events is the in-process publish/subscribe bus modules use to react
// to each other's state changes without importing one another.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName is the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp every event needs. Embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with at, normally the injected clock's now.
func NewBaseEvent(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus delivers events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches asynchronously. Handler errors are logged by the bus
	// and never reach the publisher.
	Publish(ctx context.Context, event Event)
	// PublishSync runs the handlers in the caller's goroutine and joins their
	// errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

// SubscribeAll registers h for every event name in names.
func SubscribeAll(bus Bus, h Handler, names ...string) {
	for _, name := range names {
		bus.Subscribe(name, h)
	}
}
