package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	paypalAPIBaseURL    = "https://api-m.paypal.com"
	paypalTokenPath     = "/v1/oauth2/token"
	paypalVerifyPath    = "/v1/notifications/verify-webhook-signature"
	paypalVerifySuccess = "SUCCESS"
)

// PayPalConfig holds the PayPal REST credentials
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	BaseURL      string
	// PlanIDs maps PayPal billing plan ids to plan names
	PlanIDs map[string]string
}

// Validate validates the PayPal configuration
func (c *PayPalConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("paypal: client id and secret are required")
	}
	if c.WebhookID == "" {
		return fmt.Errorf("paypal: webhook id is required")
	}
	return nil
}

// PlanFor maps a PayPal billing plan id onto a plan name
func (c *PayPalConfig) PlanFor(planID string) (string, bool) {
	plan, ok := c.PlanIDs[planID]
	return plan, ok
}

// PayPalHeaders carries the transmission headers of a webhook delivery
type PayPalHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

// PayPalHeadersFrom extracts the transmission headers from a request
func PayPalHeadersFrom(h http.Header) PayPalHeaders {
	return PayPalHeaders{
		AuthAlgo:         h.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          h.Get("PAYPAL-CERT-URL"),
		TransmissionID:   h.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  h.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: h.Get("PAYPAL-TRANSMISSION-TIME"),
	}
}

// PayPalEvent is a webhook event envelope
type PayPalEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// PayPalSubscription is the resource of BILLING.SUBSCRIPTION.* events
type PayPalSubscription struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	Status      string `json:"status"`
	CustomID    string `json:"custom_id"`
	BillingInfo struct {
		NextBillingTime *time.Time `json:"next_billing_time"`
	} `json:"billing_info"`
}

// PayPalSale is the resource of PAYMENT.SALE.* events
type PayPalSale struct {
	ID                 string `json:"id"`
	BillingAgreementID string `json:"billing_agreement_id"`
	State              string `json:"state"`
	CustomID           string `json:"custom"`
	Amount             struct {
		Total    decimal.Decimal `json:"total"`
		Currency string          `json:"currency"`
	} `json:"amount"`
}

type paypalVerifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type paypalVerifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// PayPalClient verifies webhook deliveries against the PayPal API
type PayPalClient struct {
	config     *PayPalConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPayPalClient creates a client that authenticates with OAuth client credentials
func NewPayPalClient(config *PayPalConfig, logger *zap.Logger) (*PayPalClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = paypalAPIBaseURL
	}

	creds := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     baseURL + paypalTokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	base := &http.Client{Timeout: 30 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &PayPalClient{
		config:     config,
		baseURL:    baseURL,
		httpClient: creds.Client(ctx),
		logger:     logger,
	}, nil
}

// Config returns the client configuration
func (c *PayPalClient) Config() *PayPalConfig {
	return c.config
}

// VerifyWebhook asks PayPal to verify a delivery and decodes the event
func (c *PayPalClient) VerifyWebhook(ctx context.Context, headers PayPalHeaders, payload []byte) (*PayPalEvent, error) {
	if headers.TransmissionID == "" || headers.TransmissionSig == "" {
		return nil, ErrInvalidSignature
	}
	body, err := json.Marshal(paypalVerifyRequest{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        c.config.WebhookID,
		WebhookEvent:     json.RawMessage(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to encode verification: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, paypalVerifyPath, body)
	if err != nil {
		return nil, err
	}
	var verdict paypalVerifyResponse
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return nil, fmt.Errorf("paypal: failed to decode verification: %w", err)
	}
	if verdict.VerificationStatus != paypalVerifySuccess {
		c.logger.Warn("PayPal webhook failed verification",
			zap.String("transmission_id", headers.TransmissionID),
			zap.String("status", verdict.VerificationStatus))
		return nil, ErrInvalidSignature
	}

	var event PayPalEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("paypal: failed to decode event: %w", err)
	}
	return &event, nil
}

func (c *PayPalClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	return respBody, nil
}
