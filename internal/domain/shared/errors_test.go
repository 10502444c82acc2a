package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "inventory item not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyExists)

	wrapped := fmt.Errorf("load item: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "NOT_FOUND", ErrorCode(wrapped))
}

func TestWrapDomainError_KeepsCause(t *testing.T) {
	cause := errors.New("pq: could not serialize access")
	err := WrapDomainError(ErrConcurrencyConflict.Code, "save failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Contains(t, err.Error(), "could not serialize")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrencyConflict))
	assert.True(t, IsRetryable(fmt.Errorf("tx: %w", ErrQuotaExceeded)))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.Equal(t, "", ErrorCode(errors.New("boom")))
}
