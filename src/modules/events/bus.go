package events

import "sync"

type EventType string

const (
	ImportantHeartbeat EventType = "monitor:important_heartbeat"
	MonitorCreated     EventType = "monitor:created"
	MonitorUpdated     EventType = "monitor:updated"
	MonitorDeleted     EventType = "monitor:deleted"
)

type Event struct {
	Type    EventType
	Payload any
}

type Handler func(Event)

// EventBus is a small in-process publish/subscribe hub. Publishing never
// blocks the caller; handlers run on their own goroutine.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]Handler)}
}

func (b *EventBus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Type]...)
	b.mu.RUnlock()
	for _, h := range hs {
		go h(ev)
	}
}
