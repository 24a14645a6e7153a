package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(provide),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Log       *zap.Logger
	Clock     clock.Clock
}

func provide(p Params) (*Limiter, error) {
	logBackend(p.Log.Named("ratelimit"), p.Cfg)
	if !p.Cfg.RateLimit.Enabled {
		return NewLimiter(p.Cfg.RateLimit, nil)
	}

	addr := strings.TrimSpace(p.Cfg.RedisAddr)
	if addr == "" {
		return NewLimiter(p.Cfg.RateLimit, NewLocalBucket(p.Clock))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.RedisPassword),
		DB:       p.Cfg.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewLimiter(p.Cfg.RateLimit, NewTokenBucket(client))
}
