package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/okian/rally/pkg/logger"
)

const (
	redisKeyPrefix   = "rally:snapshot:"
	redisEntryTTL    = 5 * time.Minute
	redisDialTimeout = 2 * time.Second
	redisOpTimeout   = 250 * time.Millisecond
)

// Redis implements Snapshot on a Redis instance. Each generation gets its
// own short-lived key; superseded generations simply expire. Redis failures
// degrade to cache misses, never to errors on the read path.
type Redis struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedis connects to addr and verifies connectivity.
func NewRedis(addr string, log logger.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, log: log}, nil
}

var _ Snapshot = (*Redis)(nil)

// Get returns the cached payload for generation, if present.
func (r *Redis) Get(ctx context.Context, generation uint64) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	payload, err := r.client.Get(opCtx, redisKey(generation)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn(ctx, "snapshot cache read failed", logger.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// Set stores the payload for generation with a short TTL.
func (r *Redis) Set(ctx context.Context, generation uint64, payload []byte) {
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.client.Set(opCtx, redisKey(generation), payload, redisEntryTTL).Err(); err != nil {
		r.log.Warn(ctx, "snapshot cache write failed", logger.Error(err))
	}
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func redisKey(generation uint64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, generation)
}
