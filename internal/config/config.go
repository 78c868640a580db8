// Package config defines service configuration structures and loading hooks.
package config

import "strings"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the Postgres store when set; empty keeps the
	// in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// MigrationsDir points at the goose migration files.
	MigrationsDir string `koanf:"migrations_dir"`

	// RedisAddr selects the Redis snapshot cache when set; empty keeps the
	// in-memory cache.
	RedisAddr string `koanf:"redis_addr"`

	// BusCapacity bounds the in-memory mutation bus.
	BusCapacity int `koanf:"bus_capacity"`

	// ClientBuffer sets the per-viewer outbound message buffer.
	ClientBuffer int `koanf:"client_buffer"`

	// DedupeSize sets the size of the idempotency-key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShutdownTimeoutSec bounds graceful HTTP shutdown.
	ShutdownTimeoutSec int `koanf:"shutdown_timeout_sec"`

	// AllowedOrigins restricts websocket upgrades to a comma-separated list
	// of origins. Empty allows all origins.
	AllowedOrigins string `koanf:"allowed_origins"`
}

// Origins returns the allowed origins as a cleaned slice. Nil means no
// restriction.
func (c *Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		MigrationsDir:      "db/migrations",
		BusCapacity:        1024,
		ClientBuffer:       16,
		DedupeSize:         50_000,
		ShutdownTimeoutSec: 10,
	}
}
