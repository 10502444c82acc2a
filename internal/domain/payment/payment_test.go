package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T) *Record {
	t.Helper()
	r, err := NewRecord(uuid.New(), identity.ProviderXendit, "inv-1", PurposeSale, "S-1", decimal.RequireFromString("10.005"), "idr")
	require.NoError(t, err)
	return r
}

func TestNewRecord(t *testing.T) {
	r := newRecord(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "IDR", r.Currency)
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("10.01")))

	_, err := NewRecord(uuid.New(), identity.ProviderXendit, "", PurposeSale, "", decimal.Zero, "IDR")
	assert.Error(t, err)
	_, err = NewRecord(uuid.New(), identity.ProviderXendit, "x", PurposeSale, "", decimal.NewFromInt(-1), "IDR")
	assert.Error(t, err)
}

func TestRecord_Transition(t *testing.T) {
	r := newRecord(t)
	now := time.Now()

	changed, err := r.Transition(StatusPaid, json.RawMessage(`{"status":"PAID"}`), now)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, r.PaidAt)

	changed, err = r.Transition(StatusPaid, nil, now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = r.Transition(StatusExpired, nil, now)
	assert.Error(t, err)

	changed, err = r.Transition(StatusRefunded, nil, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.JSONEq(t, `{"status":"PAID"}`, string(r.RawEvent))
}

func TestRecord_ExpiredIsFinal(t *testing.T) {
	r := newRecord(t)
	_, err := r.Transition(StatusExpired, nil, time.Now())
	require.NoError(t, err)
	_, err = r.Transition(StatusPaid, nil, time.Now())
	assert.Error(t, err)
}
