// Package ws manages the leaderboard viewer broadcast group.
package ws

import (
	"context"
	"sync"

	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// Subscriber abstracts a streaming client connection.
type Subscriber interface {
	// ID identifies the connection; re-subscribing the same ID is a no-op.
	ID() string

	// Send delivers a payload without blocking. An error means the
	// connection is unusable and the subscriber will be dropped.
	Send(payload []byte) error

	// Close terminates the connection.
	Close()
}

// Hub is the broadcast group of subscribed leaderboard viewers. Membership
// supports concurrent subscribe/broadcast; delivery to each subscriber is
// independent and best-effort.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Subscriber
	log     logger.Logger
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]Subscriber),
		log:     log,
	}
}

// Subscribe adds a subscriber to the group. Subscribing an already
// subscribed connection is a no-op, so each broadcast reaches every
// connection exactly once.
func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.Close()
		return
	}
	if _, exists := h.clients[sub.ID()]; exists {
		return
	}
	h.clients[sub.ID()] = sub
	metrics.UpdateSubscribers(len(h.clients))
}

// Unsubscribe removes a subscriber by connection id.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[id]; !exists {
		return
	}
	delete(h.clients, id)
	metrics.UpdateSubscribers(len(h.clients))
}

// Broadcast pushes payload to every subscriber. A failed delivery drops
// that subscriber and never aborts delivery to the others; the next
// broadcast naturally repairs any missed state.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Send(payload); err != nil {
			metrics.RecordBroadcastDrop()
			h.log.Debug(ctx, "dropping unreachable subscriber",
				logger.String("connection", sub.ID()),
				logger.Error(err),
			)
			sub.Close()
			h.Unsubscribe(sub.ID())
		}
	}
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops and closes all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, sub := range h.clients {
		sub.Close()
		delete(h.clients, id)
	}
	metrics.UpdateSubscribers(0)
}
