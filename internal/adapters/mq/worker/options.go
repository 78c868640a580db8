// Package worker drives snapshot rebuild and fan-out from mutation events.
package worker

import (
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Broadcaster.
type Option func(*Broadcaster)

// WithLogger sets a custom logger for the broadcaster.
func WithLogger(log logger.Logger) Option {
	return func(b *Broadcaster) {
		if log != nil {
			b.log = log
		}
	}
}
