package persistence

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type txKey struct{}

// dbFrom returns the transaction bound to ctx, or base when there is none.
// Every repository query goes through it so that work inside
// TxRunner.Execute shares one transaction.
func dbFrom(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return base.WithContext(ctx)
}

// InTransaction reports whether ctx carries a transaction
func InTransaction(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok && tx != nil
}

// RetryPolicy controls how TxRunner retries retryable failures
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is 5 attempts starting at 50ms, doubling each time
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// delay returns the jittered backoff before the given retry (1-based)
func (p RetryPolicy) delay(retry int) time.Duration {
	d := p.BaseDelay << (retry - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	// full jitter over the upper half keeps retries spread out
	half := int64(d / 2)
	return time.Duration(half + rand.Int64N(half+1))
}

// TxRunner implements shared.TransactionScope on top of GORM
type TxRunner struct {
	db     *gorm.DB
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewTxRunner creates a transaction runner with the given retry policy
func NewTxRunner(db *gorm.DB, policy RetryPolicy) *TxRunner {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &TxRunner{db: db, policy: policy, sleep: sleepCtx}
}

var _ shared.TransactionScope = (*TxRunner)(nil)

// Execute runs fn inside one transaction. Retryable errors (concurrency
// conflicts, serialization failures, quota errors) roll back and re-run fn
// with backoff; after the last attempt the final error is returned. A call
// nested inside an existing transaction joins it and is not retried on its own.
func (r *TxRunner) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		err = translateError(err)
		if err == nil || !shared.IsRetryable(err) || attempt == r.policy.MaxAttempts {
			break
		}
		wait := r.policy.delay(attempt)
		logger.L(ctx).Warn("retrying transaction",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if serr := r.sleep(ctx, wait); serr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PostgreSQL error codes mapped to domain errors
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver errors to domain errors. Domain errors and nil
// pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.WrapDomainError(shared.ErrAlreadyExists.Code, shared.ErrAlreadyExists.Message, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return shared.WrapDomainError(shared.ErrConcurrencyConflict.Code, shared.ErrConcurrencyConflict.Message, err)
		case pgUniqueViolation:
			return shared.WrapDomainError(shared.ErrAlreadyExists.Code, shared.ErrAlreadyExists.Message, err)
		}
	}
	return err
}
