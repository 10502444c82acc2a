package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestXenditClient(t *testing.T, baseURL string) *XenditClient {
	t.Helper()
	client, err := NewXenditClient(&XenditConfig{
		SecretKey:     "xnd_development_secret",
		CallbackToken: "cb-token",
		BaseURL:       baseURL,
		InvoiceExpiry: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewXenditClient_InvalidConfig(t *testing.T) {
	_, err := NewXenditClient(&XenditConfig{CallbackToken: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "secret key is required")

	_, err = NewXenditClient(&XenditConfig{SecretKey: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "callback token is required")
}

func TestXenditClient_CreateInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/invoices", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "xnd_development_secret", user)
		assert.Empty(t, pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sale-123", body["external_id"])
		assert.Equal(t, 55000.5, body["amount"])
		assert.Equal(t, "IDR", body["currency"])
		assert.Equal(t, float64(3600), body["invoice_duration"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "inv_1",
			"external_id": "sale-123",
			"status":      "PENDING",
			"invoice_url": "https://checkout.xendit.co/web/inv_1",
			"expiry_date": "2026-10-17T10:00:00Z",
		})
	}))
	defer server.Close()

	client := createTestXenditClient(t, server.URL)
	inv, err := client.CreateInvoice(context.Background(), payment.InvoiceRequest{
		ExternalID: "sale-123",
		Amount:     decimal.RequireFromString("55000.5"),
		Currency:   "idr",
	})
	require.NoError(t, err)
	assert.Equal(t, "inv_1", inv.ID)
	assert.Equal(t, "https://checkout.xendit.co/web/inv_1", inv.URL)
	assert.Equal(t, 2026, inv.ExpiresAt.Year())
}

func TestXenditClient_CreateInvoice_Errors(t *testing.T) {
	t.Run("provider error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_code":"API_VALIDATION_ERROR","message":"amount is required"}`))
		}))
		defer server.Close()

		_, err := createTestXenditClient(t, server.URL).CreateInvoice(context.Background(), payment.InvoiceRequest{ExternalID: "x"})
		assert.ErrorIs(t, err, ErrGatewayRequestFailed)
		assert.ErrorContains(t, err, "API_VALIDATION_ERROR")
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := createTestXenditClient(t, url).CreateInvoice(context.Background(), payment.InvoiceRequest{ExternalID: "x"})
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestXenditClient_VerifyCallback(t *testing.T) {
	client := createTestXenditClient(t, "")
	body := []byte(`{"id":"inv_1","external_id":"sale-123","status":"SETTLED","paid_amount":55000,"currency":"IDR"}`)

	cb, err := client.VerifyCallback(body, "cb-token")
	require.NoError(t, err)
	assert.Equal(t, "sale-123", cb.ExternalID)
	assert.True(t, cb.PaidAmount.Equal(decimal.NewFromInt(55000)))
	status, ok := cb.PaymentStatus()
	assert.True(t, ok)
	assert.Equal(t, payment.StatusPaid, status)

	_, err = client.VerifyCallback(body, "wrong")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = client.VerifyCallback([]byte(`{"status":"PAID"}`), "cb-token")
	assert.Error(t, err)
}

func TestXenditCallback_PaymentStatus(t *testing.T) {
	tests := []struct {
		status string
		want   payment.Status
		ok     bool
	}{
		{"PAID", payment.StatusPaid, true},
		{"settled", payment.StatusPaid, true},
		{"EXPIRED", payment.StatusExpired, true},
		{"PENDING", payment.StatusPending, true},
		{"UNKNOWN", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, ok := XenditCallback{Status: tt.status}.PaymentStatus()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
