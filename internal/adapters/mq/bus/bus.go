// Package bus carries mutation events from producers to the broadcast worker.
//
// Producers commit their domain change, then post a Mutation here instead of
// calling the transport directly. Posting is non-blocking: on overflow the
// event is dropped and the stale viewer state persists until the next
// mutation retriggers a rebuild.
package bus

import (
	"context"
	"sync"

	"github.com/okian/rally/pkg/metrics"
)

// Default bus configuration constants.
const defaultCapacity = 1024

// Kind identifies the mutating event that occurred.
type Kind string

// Mutation kinds posted by the event producers.
const (
	KindTeamCreated      Kind = "team-created"
	KindDonationRecorded Kind = "donation-recorded"
	KindSaleRecorded     Kind = "sale-recorded"
	KindPhotoApproved    Kind = "photo-approved"
	KindPhotoRejected    Kind = "photo-rejected"
	KindMemberChanged    Kind = "member-changed"
)

// Point is an optional targeted notification accompanying a mutation,
// pushed to viewers ahead of the full snapshot.
type Point struct {
	Event string
	Data  any
}

// Mutation is one mutating event flowing through the bus.
type Mutation struct {
	Kind  Kind
	Point *Point
}

// Bus provides non-blocking post and channel-based consume semantics.
type Bus interface {
	// Post adds a mutation to the bus.
	// Returns false if the bus is full or closed and the event was dropped.
	Post(ctx context.Context, m Mutation) bool

	// Stream returns a channel that receives mutations as they arrive.
	// The channel is closed when the bus is closed.
	Stream(ctx context.Context) <-chan Mutation

	// Len returns the current number of pending mutations.
	Len(ctx context.Context) int

	// Close shuts the bus down; no new mutations are accepted.
	Close() error

	// IsClosed returns true if the bus has been closed.
	IsClosed() bool
}

// InMemoryBus implements Bus using a buffered channel.
type InMemoryBus struct {
	events   chan Mutation
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryBus creates a new in-memory bus with configuration options.
func NewInMemoryBus(opts ...Option) *InMemoryBus {
	b := &InMemoryBus{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.events = make(chan Mutation, b.capacity)

	metrics.UpdateBusDepth(0)

	return b
}

// Post adds a mutation to the bus.
func (b *InMemoryBus) Post(ctx context.Context, m Mutation) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.RecordBusEnqueueError()
		return false
	}

	select {
	case b.events <- m:
		metrics.UpdateBusDepth(len(b.events))
		return true
	case <-ctx.Done():
		metrics.RecordBusEnqueueError()
		return false
	default:
		metrics.RecordBusEnqueueError()
		return false // bus is full
	}
}

// Stream returns a channel that receives mutations as they arrive.
func (b *InMemoryBus) Stream(ctx context.Context) <-chan Mutation {
	out := make(chan Mutation)
	go func() {
		defer close(out)
		for m := range b.events {
			select {
			case out <- m:
				metrics.UpdateBusDepth(len(b.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of pending mutations.
func (b *InMemoryBus) Len(_ context.Context) int {
	return len(b.events)
}

// Close shuts the bus down.
func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	close(b.events)
	b.closed = true
	return nil
}

// IsClosed returns true if the bus has been closed.
func (b *InMemoryBus) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
