// Package events provides the in-memory publish/subscribe bus that fans
// inbound frames and connection lifecycle events out to UI consumers.
package events

import (
	"fmt"
	"sync"

	"github.com/marketdeck/realtime/pkg/logger"
)

// Handler is a callback invoked with the event payload when an event of the
// subscribed category is emitted.
type Handler func(payload any)

// Bus is a concurrent-safe publish/subscribe dispatcher keyed by event
// category. Handlers for the same category are invoked once each per Emit;
// a panicking handler never prevents delivery to the remaining handlers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]Handler
	nextID      int
	logger      logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string]map[int]Handler),
		logger:      log,
	}
}

// On registers a handler for the given event category and returns an
// unsubscribe function. The unsubscribe function is idempotent.
func (b *Bus) On(category string, handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subscribers[category] == nil {
		b.subscribers[category] = make(map[int]Handler)
	}
	b.subscribers[category][id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers, ok := b.subscribers[category]
		if !ok {
			return
		}
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.subscribers, category)
		}
	}
}

// Emit dispatches the payload to every handler currently subscribed to the
// category. Dispatch iterates over a snapshot, so a handler unsubscribing
// (itself or others) during delivery does not corrupt the iteration.
func (b *Bus) Emit(category string, payload any) {
	b.mu.RLock()
	handlers := b.subscribers[category]
	snapshot := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		b.dispatch(category, h, payload)
	}
}

func (b *Bus) dispatch(category string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"category", category,
				"panic", fmt.Sprint(r))
		}
	}()
	h(payload)
}

// SubscriberCount returns the number of handlers subscribed to the category.
func (b *Bus) SubscriberCount(category string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[category])
}
