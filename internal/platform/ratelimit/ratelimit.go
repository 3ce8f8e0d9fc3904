// Package ratelimit counts attempts per key (for example ip|email on login) in fixed
// windows and refuses further attempts once a key has used up its budget for the window.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Decision is the outcome of a reservation.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// AttemptLimiter is implemented by the in-memory and the redis backends.
type AttemptLimiter interface {
	// Reserve takes one attempt from key's budget before the attempt runs. The
	// check and the debit are one step, so concurrent callers can never
	// overdraw the budget. A refused reservation does not extend the window.
	Reserve(ctx context.Context, key string) (Decision, error)
	// Reset clears the budget for key, typically after a successful attempt.
	Reset(ctx context.Context, key string) error
}

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	return c
}

// LoginKey builds the limiter key for a login attempt.
func LoginKey(clientIP, email string) string {
	return strings.TrimSpace(clientIP) + "|" + strings.ToLower(strings.TrimSpace(email))
}
