package redisclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"

	"github.com/cardpulse/marketscan/pkg/metrics"
)

// Client is a thin wrapper over go-redis used for the eBay token cache.
type Client struct {
	rdb *redis.Client
}

// New constructs a Client with sensible defaults.
func New(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.PoolSize = 10
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	return &Client{rdb: redis.NewClient(opt)}, nil
}

// withMetrics wraps operations with metrics collection
func (c *Client) withMetrics(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Seconds()

	metrics.RedisOperationDuration.WithLabelValues(operation, getStatus(err)).Observe(duration)
	if err != nil {
		metrics.RedisErrors.WithLabelValues(operation).Inc()
	}
	return err
}

func getStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Get returns the value for key, or ("", nil) when the key is absent or
// has expired.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := c.withMetrics("get", func() error {
		v, err := c.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		val = v
		return err
	})
	return val, err
}

// Set stores key with a TTL, retrying transient failures with exponential
// backoff (max 3 retries).
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.withMetrics("set", func() error {
		op := func() error {
			opCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			return c.rdb.Set(opCtx, key, value, ttl).Err()
		}
		return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
	})
}

// Ping checks liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.withMetrics("ping", func() error {
		return c.rdb.Ping(ctx).Err()
	})
}

// Close releases the underlying pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
