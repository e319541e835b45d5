package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts    map[string]int64
	expires   map[string]time.Duration
	incrErr   error
	expireErr error
	// expireFailures makes only the next n Expire calls fail.
	expireFailures int
	ttlCalls       int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if f.expireErr != nil {
		return redis.NewBoolResult(false, f.expireErr)
	}
	if f.expireFailures > 0 {
		f.expireFailures--
		return redis.NewBoolResult(false, errors.New("i/o timeout"))
	}
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCounter) TTL(ctx context.Context, key string) *redis.DurationCmd {
	f.ttlCalls++
	if _, ok := f.counts[key]; !ok {
		return redis.NewDurationResult(-2, nil)
	}
	if d, ok := f.expires[key]; ok {
		return redis.NewDurationResult(d, nil)
	}
	return redis.NewDurationResult(noExpiry, nil)
}

func TestRedisLimiter_AllowsUpToLimit(t *testing.T) {
	c := newFakeCounter()
	l := NewRedisLimiter(c, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, time.Minute, c.expires["rate:ip:1.2.3.4"])

	ok, err = l.Allow(ctx, "ip:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	c := newFakeCounter()
	c.incrErr = errors.New("connection refused")
	l := NewRedisLimiter(c, 1, time.Minute)

	ok, err := l.Allow(context.Background(), "k")
	assert.True(t, ok)
	assert.Error(t, err)

	c.incrErr = nil
	c.expireErr = errors.New("readonly")
	ok, err = l.Allow(context.Background(), "k2")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestRedisLimiter_RestoresLostTTL(t *testing.T) {
	c := newFakeCounter()
	c.expireFailures = 1
	l := NewRedisLimiter(c, 3, time.Minute)
	ctx := context.Background()
	key := "rate:ip:9.9.9.9"

	ok, err := l.Allow(ctx, "ip:9.9.9.9")
	assert.True(t, ok)
	assert.Error(t, err)
	_, hasTTL := c.expires[key]
	require.False(t, hasTTL)

	for i := 0; i < 2; i++ {
		ok, err = l.Allow(ctx, "ip:9.9.9.9")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Zero(t, c.ttlCalls, "TTL is only checked when denying")

	ok, err = l.Allow(ctx, "ip:9.9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, c.expires[key], "window re-applied")
}

func TestRedisLimiter_DenyKeepsRunningWindow(t *testing.T) {
	c := newFakeCounter()
	l := NewRedisLimiter(c, 1, time.Minute)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	c.expires["rate:k"] = 20 * time.Second

	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, c.expires["rate:k"], "existing TTL untouched")
}

func TestNoop(t *testing.T) {
	ok, err := Noop{}.Allow(context.Background(), "anything")
	assert.NoError(t, err)
	assert.True(t, ok)
}
