// Package events provides in-process pub/sub for monitoring lifecycle events.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different monitoring event types
type EventType string

const (
	MarketOpened       EventType = "MARKET_OPENED"
	MarketClosed       EventType = "MARKET_CLOSED"
	CycleCompleted     EventType = "CYCLE_COMPLETED"
	CycleFailed        EventType = "CYCLE_FAILED"
	BreakerTripped     EventType = "BREAKER_TRIPPED"
	MonitoringResumed  EventType = "MONITORING_RESUMED"
	MonitoringStarted  EventType = "MONITORING_STARTED"
	MonitoringStopped  EventType = "MONITORING_STOPPED"
)

// Event represents a single monitoring event
type Event struct {
	Type      EventType              `json:"type"`
	Region    string                 `json:"region,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers must be fast; they run on the
// publisher's goroutine.
type Handler func(Event)

// Bus is a minimal synchronous pub/sub bus
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers an event to every subscriber
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Manager emits events to the bus and logs them
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit publishes an event and logs it
func (m *Manager) Emit(eventType EventType, region string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Region:    region,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	m.bus.Publish(event)

	m.log.Info().
		Str("event_type", string(eventType)).
		Str("region", region).
		Interface("data", data).
		Msg("Event emitted")
}
