package service

import (
	"sync"

	"discord-giveaways/internal/features/giveaway/models"
)

// EventType names a lifecycle event consumed by host application code.
type EventType string

const (
	EventReady             EventType = "ready"
	EventDatabaseConnected EventType = "database-connected"

	EventGiveawayStarted       EventType = "giveaway-started"
	EventGiveawayRestarted     EventType = "giveaway-restarted"
	EventGiveawayLengthChanged EventType = "giveaway-length-changed"
	EventGiveawayEnded         EventType = "giveaway-ended"
	EventGiveawayRerolled      EventType = "giveaway-rerolled"
	EventGiveawayEdited        EventType = "giveaway-edited"
	EventGiveawayPaused        EventType = "giveaway-paused"
	EventGiveawayUnpaused      EventType = "giveaway-unpaused"
)

// Event carries the payload of one lifecycle event. Winners is set for ended
// and rerolled events; Key/OldValue/NewValue for edited events.
type Event struct {
	Type     EventType
	Giveaway *models.Giveaway
	Winners  []string
	Key      string
	OldValue interface{}
	NewValue interface{}
}

// emitter dispatches events synchronously to registered handlers.
type emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]func(Event)
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[EventType][]func(Event))}
}

func (e *emitter) on(t EventType, handler func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = append(e.handlers[t], handler)
}

func (e *emitter) emit(event Event) {
	e.mu.RLock()
	handlers := e.handlers[event.Type]
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
