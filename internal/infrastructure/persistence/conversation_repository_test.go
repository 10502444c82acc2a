package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConversationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormConversationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	conv := assistant.NewConversation(tenantID, userID, "Which items are running low?")
	require.NoError(t, repo.Save(ctx, conv))

	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	var msgs []*assistant.Message
	for i, content := range []string{"q1", "a1", "q2", "a2"} {
		role := assistant.RoleUser
		if i%2 == 1 {
			role = assistant.RoleAssistant
		}
		msg, err := assistant.NewMessage(tenantID, conv.ID, role, content)
		require.NoError(t, err)
		msg.CreatedAt = base.Add(time.Duration(i) * time.Second)
		msgs = append(msgs, msg)
	}
	require.NoError(t, repo.AppendMessages(ctx, msgs...))

	t.Run("returns the latest messages oldest first", func(t *testing.T) {
		history, err := repo.Messages(ctx, tenantID, conv.ID, 3)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "a1", history[0].Content)
		assert.Equal(t, "a2", history[2].Content)
		assert.Equal(t, assistant.RoleAssistant, history[2].Role)
	})

	t.Run("lists conversations of the user", func(t *testing.T) {
		convs, total, err := repo.FindByUser(ctx, tenantID, userID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Which items are running low?", convs[0].Title)

		_, total, err = repo.FindByUser(ctx, tenantID, uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("appending nothing is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.AppendMessages(ctx))
	})
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	saleID := uuid.New().String()

	rec, err := payment.NewRecord(tenantID, identity.ProviderXendit, "inv_1", payment.PurposeSale, saleID, decimal.RequireFromString("13.48"), "idr")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	t.Run("finds by provider id", func(t *testing.T) {
		found, err := repo.FindByExternalID(ctx, identity.ProviderXendit, "inv_1")
		require.NoError(t, err)
		assert.Equal(t, "IDR", found.Currency)
		assertDecimal(t, "13.48", found.Amount)
		assert.Equal(t, payment.StatusPending, found.Status)

		_, err = repo.FindByExternalID(ctx, identity.ProviderStripe, "inv_1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("keeps the raw event on transition", func(t *testing.T) {
		found, err := repo.FindByExternalID(ctx, identity.ProviderXendit, "inv_1")
		require.NoError(t, err)
		changed, err := found.Transition(payment.StatusPaid, json.RawMessage(`{"status":"PAID"}`), time.Now().UTC())
		require.NoError(t, err)
		require.True(t, changed)
		require.NoError(t, repo.Save(ctx, found))

		records, err := repo.FindByReference(ctx, tenantID, saleID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, payment.StatusPaid, records[0].Status)
		assert.NotNil(t, records[0].PaidAt)
		assert.JSONEq(t, `{"status":"PAID"}`, string(records[0].RawEvent))
	})
}
