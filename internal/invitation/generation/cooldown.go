package generation

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown remembers recently rate-limited models so subsequent requests can
// skip straight to the fallback instead of burning another call. Purely an
// optimization: the chain works correctly with a nil cooldown.
type Cooldown interface {
	MarkDegraded(ctx context.Context, model string)
	IsDegraded(ctx context.Context, model string) bool
}

// MemoryCooldown is the single-process implementation.
type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	ttl   time.Duration
}

// NewMemoryCooldown constructs a cooldown with the given TTL.
func NewMemoryCooldown(ttl time.Duration) *MemoryCooldown {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MemoryCooldown{until: make(map[string]time.Time), ttl: ttl}
}

func (c *MemoryCooldown) MarkDegraded(_ context.Context, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[model] = time.Now().Add(c.ttl)
}

func (c *MemoryCooldown) IsDegraded(_ context.Context, model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.until[model]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.until, model)
		return false
	}
	return true
}

const cooldownKeyPrefix = "generation:cooldown:"

// RedisCooldown shares degradation state across instances.
type RedisCooldown struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCooldown constructs a Redis-backed cooldown.
func NewRedisCooldown(client *redis.Client, ttl time.Duration) *RedisCooldown {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCooldown{client: client, ttl: ttl}
}

// MarkDegraded sets a marker key with expiry. Failures are ignored; the
// cooldown is advisory.
func (c *RedisCooldown) MarkDegraded(ctx context.Context, model string) {
	_ = c.client.Set(ctx, cooldownKeyPrefix+model, "1", c.ttl).Err()
}

// IsDegraded reports whether the marker key exists. Errors read as "not
// degraded" so a Redis outage never suppresses the primary model.
func (c *RedisCooldown) IsDegraded(ctx context.Context, model string) bool {
	n, err := c.client.Exists(ctx, cooldownKeyPrefix+model).Result()
	return err == nil && n > 0
}
