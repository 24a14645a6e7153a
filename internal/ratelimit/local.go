package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/revbox/internal/clock"
	"golang.org/x/time/rate"
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalBucket is the single-process fallback used when Redis is not configured.
// Limiters are driven by the injected clock rather than wall time.
type LocalBucket struct {
	clock clock.Clock

	mu       sync.Mutex
	limiters map[string]*localEntry
}

func NewLocalBucket(clk clock.Clock) *LocalBucket {
	if clk == nil {
		clk = clock.New()
	}
	return &LocalBucket{clock: clk, limiters: make(map[string]*localEntry)}
}

func (b *LocalBucket) Allow(_ context.Context, key string, perSecond float64, burst int) (Result, error) {
	if err := validate(key, perSecond, burst); err != nil {
		return Result{}, err
	}

	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evict(now, perSecond, burst)

	entry, ok := b.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
		b.limiters[key] = entry
	} else {
		if entry.limiter.Limit() != rate.Limit(perSecond) {
			entry.limiter.SetLimitAt(now, rate.Limit(perSecond))
		}
		if entry.limiter.Burst() != burst {
			entry.limiter.SetBurstAt(now, burst)
		}
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	return result(allowed, entry.limiter.TokensAt(now), perSecond, burst), nil
}

// evict drops limiters idle long enough to have refilled completely.
func (b *LocalBucket) evict(now time.Time, perSecond float64, burst int) {
	ttl := bucketTTL(perSecond, burst)
	for key, entry := range b.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(b.limiters, key)
		}
	}
}
