// Package worker drives snapshot rebuild and fan-out from mutation events.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rally/internal/adapters/mq/bus"
	"github.com/okian/rally/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Publisher pushes updates to the viewer broadcast group.
type Publisher interface {
	// PublishPoint pushes a targeted point-event notification.
	PublishPoint(ctx context.Context, event string, data any)

	// PublishSnapshot rebuilds the leaderboard and pushes it to all viewers.
	PublishSnapshot(ctx context.Context) error
}

// Source defines how the worker receives mutation events.
type Source interface {
	Stream(ctx context.Context) <-chan bus.Mutation
}

// Broadcaster consumes mutations and republishes viewer state. One instance
// serializes all rebuild-and-push cycles, so racing producers only cost
// redundant snapshots, never torn ones.
type Broadcaster struct {
	source    Source
	publisher Publisher

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// NewBroadcaster creates a broadcaster with configuration options.
func NewBroadcaster(source Source, publisher Publisher, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		source:    source,
		publisher: publisher,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger.Get().Named("broadcaster"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Run consumes mutations until ctx is canceled or the bus closes.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)

	stream := b.source.Stream(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.shutdown:
			return
		case m, ok := <-stream:
			if !ok {
				return
			}
			b.process(ctx, m)
		}
	}
}

// process pushes the point event (if any), then the fresh snapshot.
// A failed rebuild skips this cycle; the next mutation repairs viewer state.
func (b *Broadcaster) process(ctx context.Context, m bus.Mutation) {
	if m.Point != nil {
		b.publisher.PublishPoint(ctx, m.Point.Event, m.Point.Data)
	}

	if err := b.publisher.PublishSnapshot(ctx); err != nil {
		b.log.Error(ctx, "snapshot broadcast skipped",
			logger.String("kind", string(m.Kind)),
			logger.Error(err),
		)
	}
}

// Shutdown gracefully stops the broadcaster.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	close(b.shutdown)

	waitCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	select {
	case <-b.done:
		return nil
	case <-waitCtx.Done():
		b.log.Warn(ctx, "broadcaster shutdown timed out")
		return fmt.Errorf("broadcaster shutdown: %w", waitCtx.Err())
	}
}
