package catalog

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"

	"github.com/readstack/catalog/pkg/logger"
)

const statsCacheKey = "catalog:stats"

var statsJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStatsCache keeps the index counts in Redis for a short TTL so the
// landing page does not hit six count queries on every request.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStatsCache wraps an existing Redis client. TTL values at or below
// zero fall back to one minute.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisStatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = logger.NewDefault("statscache")
	}
	return &RedisStatsCache{client: client, ttl: ttl, log: log}
}

var _ StatsCache = (*RedisStatsCache)(nil)

// Get returns the cached counts, if present and decodable.
func (c *RedisStatsCache) Get(ctx context.Context) (Stats, bool) {
	payload, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("stats cache read failed")
		}
		return Stats{}, false
	}

	var stats Stats
	if err := statsJSON.Unmarshal(payload, &stats); err != nil {
		c.log.WithError(err).Warn("stats cache entry corrupt; ignoring")
		return Stats{}, false
	}
	return stats, true
}

// Set stores the counts. Failures are logged and swallowed; the cache is an
// optimization, not a source of truth.
func (c *RedisStatsCache) Set(ctx context.Context, stats Stats) {
	payload, err := statsJSON.Marshal(stats)
	if err != nil {
		c.log.WithError(err).Warn("stats cache encode failed")
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("stats cache write failed")
	}
}
