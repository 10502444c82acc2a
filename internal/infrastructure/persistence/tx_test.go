package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestTxRunner(db *gorm.DB, attempts int) *TxRunner {
	r := NewTxRunner(db, RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestTxRunner_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormBranchRepository(db)
		runner := newTestTxRunner(db, 3)
		tenantID := uuid.New()

		branch, err := location.NewBranch(tenantID, "Main", "MAIN")
		require.NoError(t, err)

		err = runner.Execute(ctx, func(ctx context.Context) error {
			assert.True(t, InTransaction(ctx))
			return repo.Save(ctx, branch)
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, tenantID, branch.ID)
		require.NoError(t, err)
		assert.Equal(t, "MAIN", found.Code)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormBranchRepository(db)
		runner := newTestTxRunner(db, 3)
		tenantID := uuid.New()

		branch, err := location.NewBranch(tenantID, "Main", "MAIN")
		require.NoError(t, err)

		boom := errors.New("boom")
		err = runner.Execute(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Save(ctx, branch))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.FindByID(ctx, tenantID, branch.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("retries conflicts until success", func(t *testing.T) {
		db := setupTestDB(t)
		runner := newTestTxRunner(db, 5)

		attempts := 0
		err := runner.Execute(ctx, func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return shared.ErrConcurrencyConflict
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		db := setupTestDB(t)
		runner := newTestTxRunner(db, 4)

		attempts := 0
		err := runner.Execute(ctx, func(ctx context.Context) error {
			attempts++
			return shared.ErrQuotaExceeded
		})
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)
		assert.Equal(t, 4, attempts)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		db := setupTestDB(t)
		runner := newTestTxRunner(db, 5)

		attempts := 0
		err := runner.Execute(ctx, func(ctx context.Context) error {
			attempts++
			return shared.ErrInvalidState
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, 1, attempts)
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		db := setupTestDB(t)
		runner := newTestTxRunner(db, 5)

		inner := 0
		err := runner.Execute(ctx, func(outer context.Context) error {
			return runner.Execute(outer, func(ctx context.Context) error {
				inner++
				assert.Same(t, outer.Value(txKey{}), ctx.Value(txKey{}))
				return nil
			})
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, inner)
	})

	t.Run("stops when the context is cancelled during backoff", func(t *testing.T) {
		db := setupTestDB(t)
		runner := NewTxRunner(db, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})
		cctx, cancel := context.WithCancel(ctx)

		attempts := 0
		err := runner.Execute(cctx, func(ctx context.Context) error {
			attempts++
			cancel()
			return shared.ErrConcurrencyConflict
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, attempts)
	})
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	for i := 0; i < 20; i++ {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 100*time.Millisecond)

		capped := p.delay(4)
		assert.GreaterOrEqual(t, capped, 150*time.Millisecond)
		assert.LessOrEqual(t, capped, 300*time.Millisecond)
	}

	assert.Equal(t, time.Duration(0), RetryPolicy{}.delay(1))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, shared.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrConcurrencyConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, shared.ErrConcurrencyConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, shared.ErrAlreadyExists},
		{"domain error passes through", shared.ErrInvalidState, shared.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in), tt.want)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("unknown errors are unchanged", func(t *testing.T) {
		err := errors.New("network down")
		assert.Same(t, err, translateError(err))
	})

	t.Run("translated errors are retryable when transient", func(t *testing.T) {
		assert.True(t, shared.IsRetryable(translateError(&pgconn.PgError{Code: "40001"})))
		assert.False(t, shared.IsRetryable(translateError(&pgconn.PgError{Code: "23505"})))
	})
}
