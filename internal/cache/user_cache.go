// Package cache keeps short-lived copies of remote API reads in redis.
package cache

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/yukikurage/taskboard-web/internal/models"
)

// UserLoader fetches the current user from the remote API.
type UserLoader func(ctx context.Context) (models.User, error)

// UserCache is a read-through cache of the current user keyed by bearer
// token. Tokens are hashed before they reach redis. A nil *UserCache, or one
// without a redis client, always calls the loader.
type UserCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewUserCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *UserCache {
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCache{redis: client, ttl: ttl, logger: logger}
}

// CurrentUser returns the cached user for token or loads and stores it.
// Loader errors are never cached.
func (c *UserCache) CurrentUser(ctx context.Context, token string, load UserLoader) (models.User, error) {
	if u, ok := c.lookup(ctx, token); ok {
		return u, nil
	}

	u, err := load(ctx)
	if err != nil {
		return models.User{}, err
	}
	c.store(ctx, token, u)
	return u, nil
}

// Invalidate drops the cached user of token, after logout or a profile update.
func (c *UserCache) Invalidate(ctx context.Context, token string) {
	if !c.enabled() || token == "" {
		return
	}
	if err := c.redis.Del(ctx, userKey(token)).Err(); err != nil {
		c.logger.Warn("user cache evict failed", zap.Error(err))
	}
}

func (c *UserCache) enabled() bool {
	return c != nil && c.redis != nil
}

func (c *UserCache) lookup(ctx context.Context, token string) (models.User, bool) {
	if !c.enabled() || token == "" {
		return models.User{}, false
	}
	data, err := c.redis.Get(ctx, userKey(token)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("user cache read failed", zap.Error(err))
		}
		return models.User{}, false
	}
	var u models.User
	if err := sonic.Unmarshal(data, &u); err != nil {
		_ = c.redis.Del(ctx, userKey(token)).Err()
		return models.User{}, false
	}
	return u, true
}

func (c *UserCache) store(ctx context.Context, token string, u models.User) {
	if !c.enabled() || c.ttl == 0 || token == "" {
		return
	}
	data, err := sonic.Marshal(u)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, userKey(token), data, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.Error(err))
	}
}

func userKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "user:" + hex.EncodeToString(sum[:])
}
