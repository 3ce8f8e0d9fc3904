package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryLimiterBlocksAfterBudget(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	lim := newMemory(Config{MaxAttempts: 3, Window: 3 * time.Minute}, clock.now)
	ctx := context.Background()
	key := LoginKey("10.0.0.1", "Owner@Example.com ")

	for i := 0; i < 3; i++ {
		d, err := lim.Reserve(ctx, key)
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d should be allowed", i)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := lim.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3*time.Minute, d.RetryAfter)

	clock.advance(2 * time.Minute)
	d, err = lim.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "no attempt comes back before the window ends")
	assert.Equal(t, time.Minute, d.RetryAfter)

	clock.advance(time.Minute)
	d, err = lim.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a new window opens")
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryLimiterCapsAttemptsPerWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	window := 15 * time.Minute
	lim := newMemory(Config{MaxAttempts: 5, Window: window}, clock.now)
	ctx := context.Background()

	start := clock.now()
	allowed := 0
	for clock.now().Before(start.Add(window)) {
		d, err := lim.Reserve(ctx, "k")
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
		clock.advance(10 * time.Second)
	}
	assert.Equal(t, 5, allowed)
}

func TestMemoryLimiterConcurrentReservations(t *testing.T) {
	lim := newMemory(Config{MaxAttempts: 5, Window: time.Hour}, time.Now)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := lim.Reserve(ctx, "shared")
			if err != nil || !d.Allowed {
				return
			}
			mu.Lock()
			allowed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

func TestMemoryLimiterResetAndIsolation(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	lim := newMemory(Config{MaxAttempts: 1, Window: time.Hour}, clock.now)
	ctx := context.Background()

	d, err := lim.Reserve(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	d, _ = lim.Reserve(ctx, "a")
	assert.False(t, d.Allowed)

	d, _ = lim.Reserve(ctx, "b")
	assert.True(t, d.Allowed)

	require.NoError(t, lim.Reset(ctx, "a"))
	d, _ = lim.Reserve(ctx, "a")
	assert.True(t, d.Allowed)
}

func TestLoginKeyNormalizesEmail(t *testing.T) {
	assert.Equal(t, "1.2.3.4|vet@clinic.test", LoginKey(" 1.2.3.4 ", " Vet@Clinic.TEST"))
}
