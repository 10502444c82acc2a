package pos

import (
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openShift(t *testing.T) *shift.Shift {
	t.Helper()
	s, err := shift.Open(uuid.New(), shared.NewLocationID(uuid.New()), uuid.New(), dec("50"))
	require.NoError(t, err)
	return s
}

func TestNewSaleOrder_Totals(t *testing.T) {
	sh := openShift(t)
	latte, bagel := uuid.New(), uuid.New()

	o, err := NewSaleOrder(sh.TenantID, sh, "S-1", []LineInput{
		{MenuItemID: latte, Name: "Latte", Quantity: 2, UnitPrice: dec("4.25")},
		{MenuItemID: bagel, Name: "Bagel", Quantity: 1, UnitPrice: dec("3")},
		{MenuItemID: latte, Name: "Latte", Quantity: 1, UnitPrice: dec("4.25")},
	}, dec("1.75"), dec("0.11"), PaymentCash)
	require.NoError(t, err)

	assert.True(t, dec("15.75").Equal(o.Subtotal))
	assert.True(t, dec("1.54").Equal(o.Tax))
	assert.True(t, dec("15.54").Equal(o.Total))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, sh.LocationID, o.LocationID)
	assert.Equal(t, sh.ID, o.ShiftID)
	assert.Equal(t, map[uuid.UUID]int{latte: 3, bagel: 1}, o.MenuQuantities())
	require.Len(t, o.GetDomainEvents(), 1)
}

func TestNewSaleOrder_Validation(t *testing.T) {
	sh := openShift(t)
	line := []LineInput{{MenuItemID: uuid.New(), Name: "Tea", Quantity: 1, UnitPrice: dec("2")}}

	tests := []struct {
		name     string
		shift    *shift.Shift
		lines    []LineInput
		discount string
		tax      string
		method   PaymentMethod
		code     string
	}{
		{"no shift", nil, line, "0", "0", PaymentCash, "NO_OPEN_SHIFT"},
		{"bad method", sh, line, "0", "0", PaymentMethod("barter"), "INVALID_PAYMENT_METHOD"},
		{"empty", sh, nil, "0", "0", PaymentCash, "EMPTY_SALE"},
		{"discount too big", sh, line, "3", "0", PaymentCash, "INVALID_DISCOUNT"},
		{"tax rate above one", sh, line, "0", "1.5", PaymentCash, "INVALID_TAX_RATE"},
		{"zero qty", sh, []LineInput{{MenuItemID: uuid.New(), Quantity: 0, UnitPrice: dec("1")}}, "0", "0", PaymentCash, "INVALID_QUANTITY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSaleOrder(sh.TenantID, tt.shift, "S-1", tt.lines, dec(tt.discount), dec(tt.tax), tt.method)
			assert.Equal(t, tt.code, shared.ErrorCode(err))
		})
	}

	require.NoError(t, sh.Close(sh.UserID, false, dec("50"), ""))
	_, err := NewSaleOrder(sh.TenantID, sh, "S-2", line, decimal.Zero, decimal.Zero, PaymentCash)
	assert.Equal(t, "NO_OPEN_SHIFT", shared.ErrorCode(err))
}

func TestSaleOrder_XenditPaymentFlow(t *testing.T) {
	sh := openShift(t)
	o, err := NewSaleOrder(sh.TenantID, sh, "S-1",
		[]LineInput{{MenuItemID: uuid.New(), Name: "Tea", Quantity: 1, UnitPrice: dec("2")}},
		decimal.Zero, decimal.Zero, PaymentXendit)
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, shift.BucketOther, o.PaymentMethod.Bucket())

	require.NoError(t, o.MarkPaid("inv-123"))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, "inv-123", o.PaymentRef)

	o.MarkPaymentFailed("inv-123")
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}

func TestSaleOrder_Void(t *testing.T) {
	sh := openShift(t)
	o, _ := NewSaleOrder(sh.TenantID, sh, "S-1",
		[]LineInput{{MenuItemID: uuid.New(), Name: "Tea", Quantity: 1, UnitPrice: dec("2")}},
		decimal.Zero, decimal.Zero, PaymentCard)
	o.ClearDomainEvents()

	assert.Equal(t, "REASON_REQUIRED", shared.ErrorCode(o.Void(" ")))
	require.NoError(t, o.Void("customer changed mind"))
	assert.Equal(t, StatusVoided, o.Status)
	assert.Equal(t, PaymentRefunded, o.PaymentStatus)
	assert.Len(t, o.GetDomainEvents(), 1)

	assert.Equal(t, "ALREADY_VOIDED", shared.ErrorCode(o.Void("again")))
	assert.Error(t, o.MarkPaid("x"))
}
