// Package events provides the in-process event bus used to broadcast run
// lifecycle and maintenance events to stream subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of event
type EventType string

const (
	// RunStarted - a persisted simulation run began generating paths
	RunStarted EventType = "run_started"
	// RunCompleted - a persisted simulation run finished and was stored
	RunCompleted EventType = "run_completed"
	// RunFailed - a persisted simulation run produced no usable paths
	RunFailed EventType = "run_failed"
	// RunDeleted - a stored run was removed (API call or retention job)
	RunDeleted EventType = "run_deleted"
	// BackupCompleted - an off-site backup archive was uploaded
	BackupCompleted EventType = "backup_completed"
)

// Event is a single published event with its payload.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block: slow consumers
// (e.g. stream connections) buffer internally and drop on overflow.
type Handler func(*Event)

// Bus is a minimal publish/subscribe fanout. Subscribers receive every event
// and filter by type themselves.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for all events and returns an unsubscribe
// function. The unsubscribe function is idempotent.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers an event to all current subscribers synchronously.
func (b *Bus) Publish(data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.log.Debug().Str("event_type", string(event.Type)).Int("subscribers", len(handlers)).Msg("Publishing event")

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
