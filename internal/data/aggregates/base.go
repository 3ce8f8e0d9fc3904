package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const (
	defaultWriteAttempts = 3
	retryBackoffStep     = 25 * time.Millisecond
)

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a plain function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

// GormTx runs each write in its own gorm transaction on db.
func GormTx(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	// Attempts bounds how often a write failing with CodeRetryable is rerun.
	Attempts int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = GormTx(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Attempts <= 0 {
		d.Attempts = defaultWriteAttempts
	}
	return d
}

// executeWrite runs fn in a transaction and reruns it while it fails with a
// retryable error (lock timeouts, SQLITE_BUSY, serialization failures).
// fn must not keep state between attempts.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	start := time.Now()

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := MapError(op, deps.Runner.InTx(ctx, fn))
		if err != nil && (!domainagg.IsCode(err, domainagg.CodeRetryable) || ctx.Err() != nil) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(&linearBackOff{step: retryBackoffStep}),
		backoff.WithMaxTries(uint(deps.Attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			deps.Hooks.WriteRetried(op, attempt, err)
			if deps.Log != nil {
				deps.Log.Warn("aggregate write retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
			}
		}),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	err = MapError(op, err)

	deps.Hooks.WriteFinished(op, outcomeOf(err), time.Since(start))
	return err
}

// linearBackOff waits step, 2*step, 3*step... between attempts.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) Reset() { b.n = 0 }

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return "failure"
}
