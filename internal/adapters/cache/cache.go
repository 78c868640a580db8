// Package cache provides a generation-keyed snapshot cache.
//
// Scores are always derived from raw events; the cache only memoizes the
// serialized snapshot for a given mutation generation. Every mutating event
// bumps the generation before the next read, so a cached snapshot can never
// be visibly stale within the process.
package cache

import (
	"context"
	"sync"
)

// Snapshot caches the serialized leaderboard keyed by generation.
type Snapshot interface {
	// Get returns the cached payload for generation, if present.
	Get(ctx context.Context, generation uint64) ([]byte, bool)

	// Set stores the payload for generation, superseding older entries.
	Set(ctx context.Context, generation uint64, payload []byte)

	// Close releases underlying resources.
	Close() error
}

// Memory implements Snapshot in-process. It keeps only the latest
// generation; older entries are superseded, never served.
type Memory struct {
	mu         sync.RWMutex
	generation uint64
	payload    []byte
}

// NewMemory creates an empty in-process snapshot cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the cached payload if it matches generation exactly.
func (m *Memory) Get(_ context.Context, generation uint64) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.payload == nil || m.generation != generation {
		return nil, false
	}
	return m.payload, true
}

// Set stores the payload unless a newer generation is already cached.
func (m *Memory) Set(_ context.Context, generation uint64, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation < m.generation {
		return
	}
	m.generation = generation
	m.payload = payload
}

// Close is a no-op for the in-process cache.
func (m *Memory) Close() error { return nil }
