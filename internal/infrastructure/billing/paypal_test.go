package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPayPalServer(t *testing.T, verdict string, tokenCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			atomic.AddInt32(tokenCalls, 1)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`))
		case "/v1/notifications/verify-webhook-signature":
			assert.Equal(t, "Bearer A21AA", r.Header.Get("Authorization"))
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.JSONEq(t, `"WH-1"`, string(body["webhook_id"]))
			assert.JSONEq(t, `"tx-1"`, string(body["transmission_id"]))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"verification_status":"` + verdict + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func createTestPayPalClient(t *testing.T, baseURL string) *PayPalClient {
	t.Helper()
	client, err := NewPayPalClient(&PayPalConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		WebhookID:    "WH-1",
		BaseURL:      baseURL,
		PlanIDs:      map[string]string{"P-PRO": "pro"},
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

var paypalHeaders = PayPalHeaders{
	AuthAlgo:         "SHA256withRSA",
	CertURL:          "https://api.paypal.com/v1/notifications/certs/CERT-1",
	TransmissionID:   "tx-1",
	TransmissionSig:  "sig",
	TransmissionTime: "2026-10-16T10:00:00Z",
}

func TestPayPalClient_VerifyWebhook(t *testing.T) {
	var tokenCalls int32
	server := newPayPalServer(t, "SUCCESS", &tokenCalls)
	defer server.Close()

	client := createTestPayPalClient(t, server.URL)
	payload := []byte(`{"id":"WH-EVT-1","event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-SUB","plan_id":"P-PRO","status":"ACTIVE","custom_id":"t-1"}}`)

	event, err := client.VerifyWebhook(context.Background(), paypalHeaders, payload)
	require.NoError(t, err)
	assert.Equal(t, "WH-EVT-1", event.ID)
	assert.Equal(t, "BILLING.SUBSCRIPTION.ACTIVATED", event.EventType)

	var sub PayPalSubscription
	require.NoError(t, json.Unmarshal(event.Resource, &sub))
	assert.Equal(t, "I-SUB", sub.ID)
	plan, ok := client.Config().PlanFor(sub.PlanID)
	assert.True(t, ok)
	assert.Equal(t, "pro", plan)

	_, err = client.VerifyWebhook(context.Background(), paypalHeaders, payload)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "access token is reused")
}

func TestPayPalClient_VerifyWebhook_Rejected(t *testing.T) {
	var tokenCalls int32
	server := newPayPalServer(t, "FAILURE", &tokenCalls)
	defer server.Close()

	client := createTestPayPalClient(t, server.URL)
	_, err := client.VerifyWebhook(context.Background(), paypalHeaders, []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = client.VerifyWebhook(context.Background(), PayPalHeaders{}, []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPayPalHeadersFrom(t *testing.T) {
	h := http.Header{}
	h.Set("Paypal-Transmission-Id", "tx-9")
	h.Set("Paypal-Auth-Algo", "SHA256withRSA")
	got := PayPalHeadersFrom(h)
	assert.Equal(t, "tx-9", got.TransmissionID)
	assert.Equal(t, "SHA256withRSA", got.AuthAlgo)
}

func TestNewPayPalClient_InvalidConfig(t *testing.T) {
	_, err := NewPayPalClient(&PayPalConfig{ClientID: "a"}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewPayPalClient(&PayPalConfig{ClientID: "a", ClientSecret: "b"}, zap.NewNop())
	assert.ErrorContains(t, err, "webhook id")
}
