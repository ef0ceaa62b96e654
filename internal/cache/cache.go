// Package cache is a Redis-backed cache for computed analytics views.
// Entries are keyed by task, view name, and the filter that produced them,
// and invalidated as a group when a task imports new orders.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecomdash/order-analytics/internal/telemetry"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// AnalyticsCache stores serialized analytics responses with a TTL. Redis
// failures degrade to cache misses; the caller recomputes from the database.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// New creates an AnalyticsCache on top of an existing Redis client.
func New(client *redis.Client, ttl time.Duration, logger logger.Logger) *AnalyticsCache {
	return &AnalyticsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// NewClient builds a Redis client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (c *AnalyticsCache) key(taskID, view, filterKey string) string {
	return fmt.Sprintf("analytics:%s:%s:%s", taskID, view, filterKey)
}

// Get loads a cached view into dest. The second return value reports a hit.
func (c *AnalyticsCache) Get(ctx context.Context, taskID, view, filterKey string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, c.key(taskID, view, filterKey)).Bytes()

	if err == redis.Nil {
		telemetry.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		telemetry.CacheMisses.Inc()
		c.logger.Warn("Cache read failed, falling back to recompute", "error", err, "taskID", taskID, "view", view)
		return false, nil
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		telemetry.CacheMisses.Inc()
		c.logger.Warn("Cache entry corrupt, falling back to recompute", "error", err, "taskID", taskID, "view", view)
		return false, nil
	}

	telemetry.CacheHits.Inc()
	return true, nil
}

// Set stores a computed view. Failures are logged and swallowed: caching is
// best effort.
func (c *AnalyticsCache) Set(ctx context.Context, taskID, view, filterKey string, value interface{}) {
	payload, err := json.Marshal(value)

	if err != nil {
		c.logger.Warn("Failed to marshal cache entry", "error", err, "taskID", taskID, "view", view)
		return
	}

	if err := c.client.Set(ctx, c.key(taskID, view, filterKey), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "error", err, "taskID", taskID, "view", view)
	}
}

// Invalidate drops every cached view for a task. Called when a task run
// imports fresh orders.
func (c *AnalyticsCache) Invalidate(ctx context.Context, taskID string) {
	pattern := fmt.Sprintf("analytics:%s:*", taskID)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		c.logger.Warn("Cache invalidation scan failed", "error", err, "taskID", taskID)
		return
	}

	if len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation delete failed", "error", err, "taskID", taskID)
	}
}

// Close releases the underlying Redis connection.
func (c *AnalyticsCache) Close() error {
	return c.client.Close()
}
