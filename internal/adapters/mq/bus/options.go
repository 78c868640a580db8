// Package bus carries mutation events from producers to the broadcast worker.
package bus

// Option applies a configuration option to the InMemoryBus.
type Option func(*InMemoryBus)

// WithCapacity sets the maximum number of buffered mutations.
func WithCapacity(capacity int) Option {
	return func(b *InMemoryBus) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}
