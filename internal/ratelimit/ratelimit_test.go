package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBucketRefills(t *testing.T) {
	ctx := context.Background()
	clk := testutil.Clock()
	bucket := NewLocalBucket(clk)

	for i := 0; i < 2; i++ {
		res, err := bucket.Allow(ctx, "k", 1, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := bucket.Allow(ctx, "k", 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := bucket.Allow(ctx, "other", 1, 2)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clk.Advance(1500 * time.Millisecond)
	res, err = bucket.Allow(ctx, "k", 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestLocalBucketRejectsBadInput(t *testing.T) {
	bucket := NewLocalBucket(testutil.Clock())
	_, err := bucket.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestLimiterDisabledAllowsEverything(t *testing.T) {
	limiter, err := NewLimiter(config.RateLimitConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "uploads", "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiterScopesCallers(t *testing.T) {
	ctx := context.Background()
	limiter, err := NewLimiter(config.RateLimitConfig{Enabled: true, Rate: 0.1, Burst: 1}, NewLocalBucket(testutil.Clock()))
	require.NoError(t, err)

	res, err := limiter.Allow(ctx, "uploads", "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "uploads", "u1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 10*time.Second, res.RetryAfter)

	res, err = limiter.Allow(ctx, "suggest", "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "uploads", "u2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewLimiterValidates(t *testing.T) {
	_, err := NewLimiter(config.RateLimitConfig{Enabled: true}, NewLocalBucket(nil))
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = NewLimiter(config.RateLimitConfig{Enabled: true, Rate: 1, Burst: 1}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
