package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_123456789",
		PriceIDs: map[string]string{
			"starter":    "price_starter_test",
			"pro":        "price_pro_test",
			"enterprise": "price_enterprise_test",
		},
		SuccessURL: "https://app.coretrack.example/billing/success",
		CancelURL:  "https://app.coretrack.example/billing/cancel",
	}
}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func newTestAdapter(t *testing.T) *StripeAdapter {
	t.Helper()
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *StripeConfig)
		expectedErr string
	}{
		{"valid", func(c *StripeConfig) {}, ""},
		{"missing secret key", func(c *StripeConfig) { c.SecretKey = "" }, "secret key is required"},
		{"publishable key", func(c *StripeConfig) { c.SecretKey = "pk_test_123" }, "must start with sk_"},
		{"missing webhook secret", func(c *StripeConfig) { c.WebhookSecret = "" }, "webhook secret is required"},
		{"missing redirect", func(c *StripeConfig) { c.CancelURL = "" }, "success and cancel URLs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestStripeConfig_PriceLookups(t *testing.T) {
	cfg := testConfig()

	id, err := cfg.GetPriceID("pro")
	require.NoError(t, err)
	assert.Equal(t, "price_pro_test", id)

	_, err = cfg.GetPriceID("free")
	assert.Error(t, err)

	plan, ok := cfg.PlanForPrice("price_starter_test")
	assert.True(t, ok)
	assert.Equal(t, "starter", plan)

	_, ok = cfg.PlanForPrice("price_unknown")
	assert.False(t, ok)
}

func TestStripeAdapter_EnsureCustomer(t *testing.T) {
	adapter := newTestAdapter(t)
	tenantID := uuid.New()

	t.Run("existing customer is reused", func(t *testing.T) {
		calls := 0
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			calls++
			return nil, fmt.Errorf("unexpected call")
		})
		defer cleanup()

		id, err := adapter.EnsureCustomer(context.Background(), CustomerInput{TenantID: tenantID, ExistingID: "cus_existing"})
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", id)
		assert.Zero(t, calls)
	})

	t.Run("creates customer with tenant metadata", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, http.MethodPost, method)
			assert.Equal(t, "/v1/customers", path)
			p, ok := params.(*stripe.CustomerParams)
			require.True(t, ok)
			assert.Equal(t, "owner@kopikita.example", stripe.StringValue(p.Email))
			assert.Equal(t, tenantID.String(), p.Metadata["tenant_id"])
			return []byte(`{"id":"cus_new","object":"customer"}`), nil
		})
		defer cleanup()

		id, err := adapter.EnsureCustomer(context.Background(), CustomerInput{
			TenantID: tenantID,
			Email:    "owner@kopikita.example",
			Name:     "Kopi Kita",
		})
		require.NoError(t, err)
		assert.Equal(t, "cus_new", id)
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Code: stripe.ErrorCodeAPIKeyExpired, Msg: "expired"}
		})
		defer cleanup()

		_, err := adapter.EnsureCustomer(context.Background(), CustomerInput{TenantID: tenantID})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create customer")
	})
}

func TestStripeAdapter_CreateCheckoutSession(t *testing.T) {
	adapter := newTestAdapter(t)
	tenantID := uuid.New()

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "/v1/checkout/sessions", path)
		p, ok := params.(*stripe.CheckoutSessionParams)
		require.True(t, ok)
		assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), stripe.StringValue(p.Mode))
		assert.Equal(t, "cus_1", stripe.StringValue(p.Customer))
		assert.Equal(t, tenantID.String(), stripe.StringValue(p.ClientReferenceID))
		require.Len(t, p.LineItems, 1)
		assert.Equal(t, "price_pro_test", stripe.StringValue(p.LineItems[0].Price))
		assert.Equal(t, "pro", p.Metadata["plan"])
		assert.Equal(t, tenantID.String(), p.SubscriptionData.Metadata["tenant_id"])
		return []byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`), nil
	})
	defer cleanup()

	sess, err := adapter.CreateCheckoutSession(context.Background(), CheckoutInput{
		TenantID:   tenantID,
		CustomerID: "cus_1",
		Plan:       "pro",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)

	_, err = adapter.CreateCheckoutSession(context.Background(), CheckoutInput{TenantID: tenantID, Plan: "free"})
	assert.Error(t, err)
}

func TestStripeAdapter_CancelSubscription(t *testing.T) {
	adapter := newTestAdapter(t)

	var gotMethod, gotPath string
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		gotMethod, gotPath = method, path
		return []byte(`{"id":"sub_1","object":"subscription","status":"canceled"}`), nil
	})
	defer cleanup()

	require.NoError(t, adapter.CancelSubscription(context.Background(), "sub_1", false))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/subscriptions/sub_1", gotPath)

	require.NoError(t, adapter.CancelSubscription(context.Background(), "sub_1", true))
	assert.Equal(t, http.MethodPost, gotMethod)
}

// signStripePayload builds a Stripe-Signature header for payload
func signStripePayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeAdapter_ConstructEvent(t *testing.T) {
	adapter := newTestAdapter(t)
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","api_version":"2020-08-27","data":{"object":{"id":"in_1"}}}`)

	event, err := adapter.ConstructEvent(payload, signStripePayload(payload, testConfig().WebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventType("invoice.paid"), event.Type)

	_, err = adapter.ConstructEvent(payload, signStripePayload(payload, "whsec_wrong", time.Now()))
	assert.Error(t, err)

	_, err = adapter.ConstructEvent(payload, signStripePayload(payload, testConfig().WebhookSecret, time.Now().Add(-time.Hour)))
	assert.Error(t, err, "signatures older than the tolerance are rejected")
}
