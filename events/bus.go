package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-registration/pkg/types"
)

// Wildcard subscribes a handler to every topic.
const Wildcard = "*"

// Event is delivered to subscribers.
type Event struct {
	Topic   string
	Payload []any
}

// User returns the first *types.User in the payload.
func (e Event) User() *types.User {
	for _, item := range e.Payload {
		if user, ok := item.(*types.User); ok {
			return user
		}
	}
	return nil
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous in-process observer. Handler errors and panics are
// logged and never reach the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   types.Logger
}

var _ types.Notifier = (*Bus)(nil)

// NewBus constructs an event bus.
func NewBus(logger types.Logger) *Bus {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe adds handler for topic. Nil handlers are ignored.
func (b *Bus) Subscribe(topic string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers payload to topic subscribers, then to wildcard subscribers.
func (b *Bus) Publish(ctx context.Context, topic string, payload ...any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[topic])+len(b.handlers[Wildcard]))
	handlers = append(handlers, b.handlers[topic]...)
	if topic != Wildcard {
		handlers = append(handlers, b.handlers[Wildcard]...)
	}
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, handler := range handlers {
		if err := b.dispatch(ctx, handler, event); err != nil {
			b.logger.Error("event handler failed", err, "topic", topic)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("events: handler panic: %v", rec)
		}
	}()
	return handler(ctx, event)
}
