package billing

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	xenditAPIBaseURL     = "https://api.xendit.co"
	xenditInvoicePath    = "/v2/invoices"
	xenditCallbackHeader = "x-callback-token"
)

// XenditConfig holds the Xendit API credentials
type XenditConfig struct {
	SecretKey     string
	CallbackToken string
	BaseURL       string
	InvoiceExpiry time.Duration
}

// Validate validates the Xendit configuration
func (c *XenditConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("xendit: secret key is required")
	}
	if c.CallbackToken == "" {
		return fmt.Errorf("xendit: callback token is required")
	}
	return nil
}

// XenditCallback is the invoice callback body posted by Xendit
type XenditCallback struct {
	ID            string          `json:"id"`
	ExternalID    string          `json:"external_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// PaymentStatus maps the invoice status onto a payment status
func (c XenditCallback) PaymentStatus() (payment.Status, bool) {
	switch strings.ToUpper(c.Status) {
	case "PAID", "SETTLED":
		return payment.StatusPaid, true
	case "EXPIRED":
		return payment.StatusExpired, true
	case "PENDING":
		return payment.StatusPending, true
	}
	return "", false
}

type xenditInvoiceRequest struct {
	ExternalID         string  `json:"external_id"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency,omitempty"`
	Description        string  `json:"description,omitempty"`
	PayerEmail         string  `json:"payer_email,omitempty"`
	InvoiceDuration    int64   `json:"invoice_duration,omitempty"`
	SuccessRedirectURL string  `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string  `json:"failure_redirect_url,omitempty"`
}

type xenditInvoiceResponse struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	InvoiceURL string    `json:"invoice_url"`
	ExpiryDate time.Time `json:"expiry_date"`
}

type xenditErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// XenditClient creates invoices and verifies callbacks
type XenditClient struct {
	config     *XenditConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewXenditClient creates a new Xendit client
func NewXenditClient(config *XenditConfig, logger *zap.Logger) (*XenditClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &XenditClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// CreateInvoice creates a hosted invoice page
func (c *XenditClient) CreateInvoice(ctx context.Context, req payment.InvoiceRequest) (*payment.Invoice, error) {
	body := xenditInvoiceRequest{
		ExternalID:         req.ExternalID,
		Amount:             req.Amount.InexactFloat64(),
		Currency:           strings.ToUpper(req.Currency),
		Description:        req.Description,
		PayerEmail:         req.PayerEmail,
		SuccessRedirectURL: req.SuccessURL,
		FailureRedirectURL: req.FailureURL,
	}
	if c.config.InvoiceExpiry > 0 {
		body.InvoiceDuration = int64(c.config.InvoiceExpiry / time.Second)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("xendit: failed to encode invoice: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, xenditInvoicePath, payload)
	if err != nil {
		c.logger.Error("Failed to create Xendit invoice",
			zap.String("external_id", req.ExternalID),
			zap.Error(err))
		return nil, err
	}

	var resp xenditInvoiceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("xendit: failed to decode invoice: %w", err)
	}

	c.logger.Info("Created Xendit invoice",
		zap.String("external_id", req.ExternalID),
		zap.String("invoice_id", resp.ID))
	return &payment.Invoice{ID: resp.ID, URL: resp.InvoiceURL, ExpiresAt: resp.ExpiryDate}, nil
}

// VerifyCallback checks the callback token and decodes the body
func (c *XenditClient) VerifyCallback(payload []byte, token string) (*XenditCallback, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.config.CallbackToken)) != 1 {
		return nil, ErrInvalidSignature
	}
	var cb XenditCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("xendit: failed to decode callback: %w", err)
	}
	if cb.ID == "" || cb.ExternalID == "" {
		return nil, fmt.Errorf("xendit: callback is missing the invoice id")
	}
	return &cb, nil
}

// CallbackHeader is the header carrying the callback token
func (c *XenditClient) CallbackHeader() string {
	return xenditCallbackHeader
}

func (c *XenditClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	baseURL := c.config.BaseURL
	if baseURL == "" {
		baseURL = xenditAPIBaseURL
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("xendit: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.config.SecretKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xendit: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp xenditErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.ErrorCode != "" {
			return nil, fmt.Errorf("%w: %s - %s", ErrGatewayRequestFailed, errResp.ErrorCode, errResp.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	return respBody, nil
}

var _ payment.InvoiceIssuer = (*XenditClient)(nil)
