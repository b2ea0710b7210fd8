package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
)

// Client is a Redis client wrapper that implements the Store interface.
// It provides thread-safe access to Redis with connection pooling and structured logging.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
// Error Handling: All Redis errors are wrapped with contextual information.
type Client struct {
	rdb    *redis.Client  // Redis client instance with connection pooling
	logger *logrus.Logger // Structured logger for debugging and monitoring
}

// NewClient creates a new Redis client instance with the provided configuration.
// It establishes a connection pool, validates connectivity, and returns a ready-to-use client.
//
// Configuration:
//   - URL: Redis connection string (redis://host:port/db)
//   - Password: Optional authentication password
//   - DB: Database number to select
//   - Connection pooling settings (MaxRetries, PoolSize, MinIdleConn)
//   - Timeout settings (DialTimeout, ReadTimeout, WriteTimeout, PoolTimeout, IdleTimeout)
//
// Returns an error if the URL cannot be parsed or the server does not answer PING.
func NewClient(cfg *config.RedisConfig, logger *logrus.Logger) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password // pragma: allowlist secret
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConn
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	opts.ConnMaxIdleTime = cfg.IdleTimeout

	client := NewClientFromRedis(redis.NewClient(opts), logger)

	if pingErr := client.Ping(context.Background()); pingErr != nil {
		_ = client.rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}

	logger.Info("Connected to Redis successfully")

	return client, nil
}

// NewClientFromRedis wraps an existing go-redis client without checking connectivity.
func NewClientFromRedis(rdb *redis.Client, logger *logrus.Logger) *Client {
	return &Client{
		rdb:    rdb,
		logger: logger,
	}
}

// Close gracefully shuts down the Redis client and closes all connections in the pool.
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.logger.WithError(err).Error("Failed to close Redis connection")
		return err
	}
	c.logger.Info("Redis connection closed")
	return nil
}

// Ping tests connectivity to the Redis server by sending a PING command.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// GetRedisClient returns the underlying go-redis client for advanced operations
// like rate limiting with redis_rate.
func (c *Client) GetRedisClient() *redis.Client {
	return c.rdb
}

// Scan runs a single SCAN iteration with MATCH and COUNT.
func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	keys, next, err := c.rdb.Scan(ctx, cursor, match, count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, next, nil
}

// Get retrieves the string value at key. A missing key yields ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return data, nil
}

// RangeByScore runs ZRANGEBYSCORE key min max, returning members by ascending score.
func (c *Client) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	members, err := c.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(min, 10),
		Max: strconv.FormatInt(max, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range sorted set %s: %w", key, err)
	}

	c.logger.WithFields(logrus.Fields{
		"key":     key,
		"members": len(members),
	}).Debug("Sorted set range retrieved")

	return members, nil
}
