package lock

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/revbox/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPrefix = "revbox:lock:"

var Module = fx.Module("lock",
	fx.Provide(New),
)

// New returns a Redis-backed locker when REDIS_ADDR is set, otherwise an in-process one.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Info("redis not configured, using in-process locks")
		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	return NewRedisLocker(client, keyPrefix)
}
