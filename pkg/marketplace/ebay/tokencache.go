package ebay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/redisclient"
)

// TokenCache is an expiry-checked store for the Browse API bearer token,
// scoped to this fetcher. There is deliberately no ambient process-wide
// token state.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, ttl time.Duration)
}

// NopTokenCache never hits: every search re-authenticates.
type NopTokenCache struct{}

func (NopTokenCache) Get(context.Context) (string, bool) { return "", false }

func (NopTokenCache) Set(context.Context, string, time.Duration) {}

const redisTokenKey = "ebay:oauth:token"

// RedisTokenCache keeps the token in Redis so restarts and replicas share
// it. Redis owns the expiry; cache faults degrade to a fresh auth, never
// to a failed search.
type RedisTokenCache struct {
	client *redisclient.Client
}

func NewRedisTokenCache(client *redisclient.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, bool) {
	token, err := c.client.Get(ctx, redisTokenKey)
	if err != nil {
		logger.Log.Warn("token cache read failed", zap.Error(err))
		return "", false
	}
	return token, token != ""
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	if err := c.client.Set(ctx, redisTokenKey, token, ttl); err != nil {
		logger.Log.Warn("token cache write failed", zap.Error(err))
	}
}
