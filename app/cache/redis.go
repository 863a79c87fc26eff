package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSummaryTTL = 7 * 24 * time.Hour

// Cache wraps a Redis client for summary caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{
		client: client,
		ttl:    ttl,
	}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// SummaryKey derives a stable key from the article title and cleaned body.
func SummaryKey(title, body string) string {
	hash := sha256.Sum256([]byte(title + "\x00" + body))
	return fmt.Sprintf("summary:%x", hash[:16])
}

func (c *Cache) GetSummary(ctx context.Context, title, body string) (string, bool, error) {
	return c.Get(ctx, SummaryKey(title, body))
}

func (c *Cache) SetSummary(ctx context.Context, title, body, summary string) error {
	return c.Set(ctx, SummaryKey(title, body), summary, c.ttl)
}

func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
