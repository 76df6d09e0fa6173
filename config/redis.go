package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ErrRedisDisabled is returned when REDIS_ADDR is unset; callers fall back to an in-process cache.
var ErrRedisDisabled = errors.New("REDIS_ADDR environment variable is not set")

func InitRedis(cfg *Config) error {
	val := cfg.RedisAddr
	if val == "" {
		return ErrRedisDisabled
	}

	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return err
		}
		RedisClient = redis.NewClient(opt)
	} else {
		RedisClient = redis.NewClient(&redis.Options{Addr: val})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := RedisClient.Ping(ctx).Result()
	return err
}

func CloseRedis() {
	if RedisClient == nil {
		return
	}
	_ = RedisClient.Close()
}
