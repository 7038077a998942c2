package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"privchat/config"
)

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

func TTL(cfg config.RedisConfig) time.Duration {
	if cfg.PresenceTTL <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.PresenceTTL) * time.Second
}
