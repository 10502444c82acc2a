package shift

import (
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openTestShift(t *testing.T) *Shift {
	t.Helper()
	s, err := Open(uuid.New(), shared.NewLocationID(uuid.New()), uuid.New(), dec("100"))
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	s := openTestShift(t)
	assert.True(t, s.IsOpen())
	assert.Equal(t, s.CreatedAt, s.OpenedAt)
	require.NotNil(t, s.CreatedBy)
	assert.Equal(t, s.UserID, *s.CreatedBy)

	_, err := Open(uuid.New(), shared.NewLocationID(uuid.New()), uuid.New(), dec("-1"))
	assert.Equal(t, "INVALID_CASH", shared.ErrorCode(err))
}

func TestShift_RecordSaleAndClose(t *testing.T) {
	s := openTestShift(t)

	require.NoError(t, s.RecordSale(BucketCash, dec("25.50")))
	require.NoError(t, s.RecordSale(BucketCard, dec("40")))
	require.NoError(t, s.RecordSale(BucketOther, dec("10")))
	require.NoError(t, s.RecordSale(BucketCash, dec("-5.50")))

	assert.True(t, dec("120").Equal(s.ExpectedCash()))
	assert.True(t, dec("70").Equal(s.TotalSales()))
	assert.Equal(t, 2, s.SalesCount)

	require.NoError(t, s.Close(s.UserID, false, dec("118"), " short two "))
	assert.False(t, s.IsOpen())
	assert.True(t, dec("-2").Equal(s.Variance))
	assert.Equal(t, "short two", s.Notes)
	assert.NotNil(t, s.ClosedAt)

	assert.Equal(t, "SHIFT_CLOSED", shared.ErrorCode(s.RecordSale(BucketCash, dec("1"))))
	assert.Equal(t, "SHIFT_CLOSED", shared.ErrorCode(s.Close(s.UserID, true, dec("1"), "")))
}

func TestShift_ClosePermissions(t *testing.T) {
	s := openTestShift(t)
	other := uuid.New()

	err := s.Close(other, false, dec("100"), "")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.True(t, s.IsOpen())

	require.NoError(t, s.Close(other, true, dec("100"), ""))
	assert.True(t, s.Variance.IsZero())
}
