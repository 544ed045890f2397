package sed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores registry session tokens per user identity.
type TokenCache interface {
	Get(ctx context.Context, identity string) (string, bool, error)
	Set(ctx context.Context, identity, token string, ttl time.Duration) error
	Invalidate(ctx context.Context, identity string) error
}

const tokenKeyPrefix = "sed:token:"

// RedisTokenCache keeps tokens in Redis with the key's TTL as expiry, so
// every worker replica shares one session.
type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, identity string) (string, bool, error) {
	token, err := c.client.Get(ctx, tokenKeyPrefix+identity).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, identity, token string, ttl time.Duration) error {
	return c.client.Set(ctx, tokenKeyPrefix+identity, token, ttl).Err()
}

func (c *RedisTokenCache) Invalidate(ctx context.Context, identity string) error {
	return c.client.Del(ctx, tokenKeyPrefix+identity).Err()
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenCache is a process-local TokenCache.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

func NewMemoryTokenCache(now func() time.Time) *MemoryTokenCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryTokenCache{tokens: make(map[string]cachedToken), now: now}
}

func (c *MemoryTokenCache) Get(_ context.Context, identity string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tokens[identity]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(t.expiresAt) {
		delete(c.tokens, identity)
		return "", false, nil
	}
	return t.value, true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, identity, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[identity] = cachedToken{value: token, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, identity)
	return nil
}
