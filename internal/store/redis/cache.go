package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is the default TTL for cached redirects (24 hours)
const DefaultCacheTTL = 24 * time.Hour

// Resolution is what a short code resolves to.
type Resolution struct {
	BookmarkID string `json:"bookmark_id"`
	URL        string `json:"url"`
}

// Cache fronts short code lookups with Redis.
// The store stays the source of truth; entries only save a SQL round trip.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a redirect cache. A non-positive ttl uses DefaultCacheTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached resolution for a short code. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, shortCode string) (Resolution, bool, error) {
	data, err := c.client.Get(ctx, RedirectKey(shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Resolution{}, false, nil // Cache miss
		}
		return Resolution{}, false, fmt.Errorf("failed to get cached redirect: %w", err)
	}

	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return Resolution{}, false, fmt.Errorf("failed to unmarshal cached redirect: %w", err)
	}
	if res.BookmarkID == "" || res.URL == "" {
		return Resolution{}, false, nil
	}
	return res, true, nil
}

// Set stores a resolution for a short code
func (c *Cache) Set(ctx context.Context, shortCode string, res Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal redirect: %w", err)
	}
	if err := c.client.Set(ctx, RedirectKey(shortCode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache redirect: %w", err)
	}
	return nil
}

// Invalidate removes a cached resolution
func (c *Cache) Invalidate(ctx context.Context, shortCode string) error {
	if err := c.client.Del(ctx, RedirectKey(shortCode)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate redirect: %w", err)
	}
	return nil
}

// Codes lists the short codes currently cached, sorted.
func (c *Cache) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := c.client.Scan(ctx, 0, KeyPrefixRedirect+"*", 0).Iterator()
	for iter.Next(ctx) {
		code, err := ExtractShortCode(iter.Val())
		if err != nil {
			continue
		}
		codes = append(codes, code)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redirects: %w", err)
	}
	sort.Strings(codes)
	return codes, nil
}

// Flush removes all cached resolutions and reports how many were dropped.
func (c *Cache) Flush(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, KeyPrefixRedirect+"*", 0).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete redirect key: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to flush redirects: %w", err)
	}
	return removed, nil
}

// Ping checks the underlying Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
