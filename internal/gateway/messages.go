// Package gateway implements the caching reverse proxies that keep the
// web app usable offline. Both the customer and admin gateways are the
// same Worker parameterized by a scope descriptor.
package gateway

import (
	"sync"
	"time"
)

// Message is a command sent to a gateway worker. The concrete types
// below form the full command surface; anything else is rejected.
type Message interface {
	isMessage()
}

// SkipWaiting asks the worker to activate its version immediately
// instead of waiting for the next startup.
type SkipWaiting struct{}

// ClearCache asks the worker to drop every partition in its namespace.
// Reply, when non-nil, receives the outcome exactly once.
type ClearCache struct {
	Reply chan error
}

// CacheMenuData seeds the worker's api partition with a menu payload
// so the menu endpoint resolves offline.
type CacheMenuData struct {
	Body []byte
}

func (SkipWaiting) isMessage()   {}
func (ClearCache) isMessage()    {}
func (CacheMenuData) isMessage() {}

// Event is a notification published by a gateway worker.
type Event interface {
	isEvent()
}

// Activated is published once per activation, after stale partitions
// have been purged.
type Activated struct {
	Scope   string
	Version string
	At      time.Time
}

// ReloadRequested tells attached clients to reload so the freshly
// activated version serves them.
type ReloadRequested struct {
	Scope string
}

func (Activated) isEvent()       {}
func (ReloadRequested) isEvent() {}

// Hub fans events out to subscribers. Slow subscribers miss events
// rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns an event channel and an unsubscribe function.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 4)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
