package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnOption tunes the Redis connection opened by OpenRedis.
type ConnOption func(*connOptions)

type connOptions struct {
	poolSize      int
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
	ioTimeout     time.Duration
}

// WithPoolSize sets the connection pool size. Default: 10.
func WithPoolSize(n int) ConnOption {
	return func(o *connOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithRetry sets how many times OpenRedis pings before giving up. The wait
// between attempts grows linearly with interval.
func WithRetry(attempts int, interval time.Duration) ConnOption {
	return func(o *connOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeouts sets the dial timeout and the read/write timeout.
func WithTimeouts(dial, io time.Duration) ConnOption {
	return func(o *connOptions) {
		o.dialTimeout = dial
		o.ioTimeout = io
	}
}

// OpenRedis parses a redis:// or rediss:// URL and returns a client that
// answered a PING.
func OpenRedis(ctx context.Context, url string, opts ...ConnOption) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidURL
	}

	o := &connOptions{
		poolSize:      10,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		dialTimeout:   5 * time.Second,
		ioTimeout:     3 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	redisOpts.PoolSize = o.poolSize
	redisOpts.DialTimeout = o.dialTimeout
	redisOpts.ReadTimeout = o.ioTimeout
	redisOpts.WriteTimeout = o.ioTimeout

	attempts := max(o.retryAttempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(redisOpts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

// RedisHealthcheck returns a readiness check that pings client.
func RedisHealthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrUnhealthy
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}
