package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// window is one key's budget. The limiter never refills inside the window; the
// whole entry is replaced once the window has passed.
type window struct {
	lim     *rate.Limiter
	expires time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]*window
	now     func() time.Time
}

// NewMemory returns a process-local limiter. A key's window opens on its first
// reservation and allows MaxAttempts until Window has passed.
func NewMemory(cfg Config) AttemptLimiter {
	return newMemory(cfg, time.Now)
}

func newMemory(cfg Config, now func() time.Time) *memoryLimiter {
	return &memoryLimiter{
		cfg:     cfg.withDefaults(),
		windows: make(map[string]*window),
		now:     now,
	}
}

func (m *memoryLimiter) Reserve(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expires) {
		m.pruneLocked(now)
		// One token per Window with a burst of MaxAttempts: the bucket cannot
		// regain a token before the entry itself expires.
		w = &window{
			lim:     rate.NewLimiter(rate.Every(m.cfg.Window), m.cfg.MaxAttempts),
			expires: now.Add(m.cfg.Window),
		}
		m.windows[key] = w
	}
	if w.lim.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(math.Floor(w.lim.TokensAt(now)))}, nil
	}
	wait := w.expires.Sub(now)
	if wait < time.Second {
		wait = time.Second
	}
	return Decision{Allowed: false, RetryAfter: wait}, nil
}

func (m *memoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// pruneLocked drops expired windows once the map grows large.
func (m *memoryLimiter) pruneLocked(now time.Time) {
	if len(m.windows) < 10000 {
		return
	}
	for k, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, k)
		}
	}
}
