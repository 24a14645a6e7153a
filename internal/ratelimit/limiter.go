package ratelimit

import (
	"context"
	"strings"

	"github.com/smallbiznis/revbox/internal/config"
	"go.uber.org/zap"
)

const keyPrefix = "revbox:ratelimit:"

// Limiter guards the expensive ingestion endpoints with a per-caller token bucket.
type Limiter struct {
	enabled bool
	bucket  Bucket
	rate    float64
	burst   int
}

func NewLimiter(cfg config.RateLimitConfig, bucket Bucket) (*Limiter, error) {
	if !cfg.Enabled {
		return &Limiter{}, nil
	}
	if cfg.Rate <= 0 || cfg.Burst <= 0 {
		return nil, ErrInvalidLimit
	}
	if bucket == nil {
		return nil, ErrNotConfigured
	}
	return &Limiter{enabled: true, bucket: bucket, rate: cfg.Rate, burst: cfg.Burst}, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow spends one token from the bucket named by scope and caller.
func (l *Limiter) Allow(ctx context.Context, scope, caller string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		caller = "anonymous"
	}
	return l.bucket.Allow(ctx, keyPrefix+scope+":"+caller, l.rate, l.burst)
}

func logBackend(log *zap.Logger, cfg config.Config) {
	if !cfg.RateLimit.Enabled {
		log.Debug("rate limiting disabled")
		return
	}
	backend := "local"
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		backend = "redis"
	}
	log.Info("rate limiting enabled",
		zap.String("backend", backend),
		zap.Float64("rate", cfg.RateLimit.Rate),
		zap.Int("burst", cfg.RateLimit.Burst),
	)
}
