// Package events provides the in-process message bus the data layer uses
// to surface global side effects (session expiry, health changes) without
// reaching into navigation or UI concerns directly.
package events

import "sync"

type Topic string

const (
	// TopicSessionExpired fires when a 401 invalidated the stored session.
	// The presentation layer decides whether to redirect to login.
	TopicSessionExpired Topic = "session.expired"

	// TopicHealthChanged fires when the backend health state transitions.
	TopicHealthChanged Topic = "health.changed"

	// TopicNotification carries user-facing transient messages.
	TopicNotification Topic = "notification"
)

type Handler func(payload any)

// Bus is a minimal synchronous pub/sub hub. Handlers run on the
// publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Topic]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Topic]map[int]Handler)}
}

// Subscribe registers a handler and returns an unsubscribe function.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// Publish delivers payload to every handler subscribed to topic.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	subscribed := make([]Handler, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		subscribed = append(subscribed, h)
	}
	b.mu.RUnlock()

	for _, h := range subscribed {
		h(payload)
	}
}
