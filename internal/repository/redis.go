package repository

import (
	"context"
	"fmt"
	"time"

	"affilink/internal/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the link-cache client. A failure here is survivable:
// the caller disables caching and the redirect path falls through to the
// database.
func InitRedis(cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}
