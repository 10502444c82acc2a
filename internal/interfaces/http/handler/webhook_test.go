package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	billingapp "github.com/coretrack/backend/internal/application/billing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStripeWebhooks struct {
	result       *billingapp.WebhookResult
	err          error
	gotPayload   string
	gotSignature string
}

func (m *mockStripeWebhooks) ProcessWebhook(_ context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error) {
	m.gotPayload = string(payload)
	m.gotSignature = signature
	return m.result, m.err
}

type mockPayPalWebhooks struct {
	gotHeaders billing.PayPalHeaders
}

func (m *mockPayPalWebhooks) ProcessWebhook(_ context.Context, headers billing.PayPalHeaders, _ []byte) (*billingapp.WebhookResult, error) {
	m.gotHeaders = headers
	return &billingapp.WebhookResult{EventID: "WH-1", Processed: true}, nil
}

type mockXenditCallbacks struct {
	gotToken string
}

func (m *mockXenditCallbacks) ProcessCallback(_ context.Context, _ []byte, token string) (*billingapp.WebhookResult, error) {
	m.gotToken = token
	return &billingapp.WebhookResult{EventID: "inv-1", Processed: true}, nil
}

func webhookRouter(h *WebhookHandler) *gin.Engine {
	r := gin.New()
	r.POST("/webhooks/stripe", h.Stripe)
	r.POST("/webhooks/paypal", h.PayPal)
	r.POST("/webhooks/xendit", h.Xendit)
	return r
}

func postWebhook(r http.Handler, path, body string, headers map[string]string) (int, string) {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func TestWebhookHandler_Stripe(t *testing.T) {
	tests := []struct {
		name   string
		result *billingapp.WebhookResult
		err    error
		status int
		code   string
	}{
		{
			name:   "processed",
			result: &billingapp.WebhookResult{EventID: "evt_1", EventType: "invoice.paid", Processed: true},
			status: http.StatusOK,
		},
		{
			name:   "duplicate",
			result: &billingapp.WebhookResult{EventID: "evt_1", Processed: true, Duplicate: true},
			status: http.StatusOK,
		},
		{
			name:   "bad signature",
			err:    shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid webhook signature", errors.New("no match")),
			status: http.StatusUnauthorized,
			code:   dto.ErrCodeInvalidSig,
		},
		{
			name:   "processing failed",
			result: &billingapp.WebhookResult{EventID: "evt_2", EventType: "invoice.paid"},
			err:    errors.New("database unavailable"),
			status: http.StatusInternalServerError,
			code:   dto.ErrCodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripe := &mockStripeWebhooks{result: tt.result, err: tt.err}
			r := webhookRouter(NewWebhookHandler(stripe, nil, nil, 0))

			status, body := postWebhook(r, "/webhooks/stripe", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "t=1,v1=abc"})
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, "t=1,v1=abc", stripe.gotSignature)
			assert.Equal(t, `{"id":"evt_1"}`, stripe.gotPayload)
			if tt.code != "" {
				assert.Contains(t, body, tt.code)
			}
		})
	}
}

func TestWebhookHandler_DisabledProviders(t *testing.T) {
	r := webhookRouter(NewWebhookHandler(nil, nil, nil, 0))
	for _, path := range []string{"/webhooks/stripe", "/webhooks/paypal", "/webhooks/xendit"} {
		status, body := postWebhook(r, path, `{}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
		assert.Contains(t, body, "PAYMENT_PROVIDER_DISABLED")
	}
}

func TestWebhookHandler_BodyLimit(t *testing.T) {
	stripe := &mockStripeWebhooks{}
	r := webhookRouter(NewWebhookHandler(stripe, nil, nil, 16))

	status, _ := postWebhook(r, "/webhooks/stripe", strings.Repeat("x", 64), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Empty(t, stripe.gotPayload)
}

func TestWebhookHandler_PayPalAndXenditHeaders(t *testing.T) {
	paypal := &mockPayPalWebhooks{}
	xendit := &mockXenditCallbacks{}
	r := webhookRouter(NewWebhookHandler(nil, paypal, xendit, 0))

	status, _ := postWebhook(r, "/webhooks/paypal", `{"id":"WH-1"}`, map[string]string{
		"Paypal-Transmission-Id": "tx-1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tx-1", paypal.gotHeaders.TransmissionID)

	status, _ = postWebhook(r, "/webhooks/xendit", `{"id":"inv-1"}`, map[string]string{
		"X-Callback-Token": "secret",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "secret", xendit.gotToken)
}
