package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	billingapp "github.com/coretrack/backend/internal/application/billing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultWebhookBodyLimit caps provider payloads
const DefaultWebhookBodyLimit = 64 << 10

// StripeWebhooks processes Stripe deliveries
type StripeWebhooks interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error)
}

// PayPalWebhooks processes PayPal deliveries
type PayPalWebhooks interface {
	ProcessWebhook(ctx context.Context, headers billing.PayPalHeaders, payload []byte) (*billingapp.WebhookResult, error)
}

// XenditCallbacks processes Xendit invoice callbacks
type XenditCallbacks interface {
	ProcessCallback(ctx context.Context, payload []byte, token string) (*billingapp.WebhookResult, error)
}

// WebhookHandler serves the unauthenticated /webhooks endpoints. A nil
// provider answers 503 so misrouted deliveries are retried later.
type WebhookHandler struct {
	BaseHandler
	stripe    StripeWebhooks
	paypal    PayPalWebhooks
	xendit    XenditCallbacks
	bodyLimit int64
}

// NewWebhookHandler creates a WebhookHandler. Any provider may be nil.
func NewWebhookHandler(stripe StripeWebhooks, paypal PayPalWebhooks, xendit XenditCallbacks, bodyLimit int64) *WebhookHandler {
	if bodyLimit <= 0 {
		bodyLimit = DefaultWebhookBodyLimit
	}
	return &WebhookHandler{stripe: stripe, paypal: paypal, xendit: xendit, bodyLimit: bodyLimit}
}

// Stripe handles POST /webhooks/stripe
// @ID           webhooksStripe
// @Summary      Stripe webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.WebhookResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	if h.stripe == nil {
		h.disabled(c, "stripe")
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	result, err := h.stripe.ProcessWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	h.respond(c, "stripe", result, err)
}

// PayPal handles POST /webhooks/paypal
// @ID           webhooksPayPal
// @Summary      PayPal webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.WebhookResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /webhooks/paypal [post]
func (h *WebhookHandler) PayPal(c *gin.Context) {
	if h.paypal == nil {
		h.disabled(c, "paypal")
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	result, err := h.paypal.ProcessWebhook(c.Request.Context(), billing.PayPalHeadersFrom(c.Request.Header), payload)
	h.respond(c, "paypal", result, err)
}

// Xendit handles POST /webhooks/xendit
// @ID           webhooksXendit
// @Summary      Xendit invoice callback
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.WebhookResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /webhooks/xendit [post]
func (h *WebhookHandler) Xendit(c *gin.Context) {
	if h.xendit == nil {
		h.disabled(c, "xendit")
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	result, err := h.xendit.ProcessCallback(c.Request.Context(), payload, c.GetHeader("x-callback-token"))
	h.respond(c, "xendit", result, err)
}

func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Webhook payload too large")
			return nil, false
		}
		h.BadRequest(c, "Failed to read request body")
		return nil, false
	}
	return payload, true
}

func (h *WebhookHandler) disabled(c *gin.Context, provider string) {
	h.Error(c, http.StatusServiceUnavailable, "PAYMENT_PROVIDER_DISABLED", provider+" webhooks are not configured")
}

// respond answers 200 for processed and duplicate deliveries. A failure after
// the signature check answers 500 so the provider redelivers.
func (h *WebhookHandler) respond(c *gin.Context, provider string, result *billingapp.WebhookResult, err error) {
	if err == nil {
		h.Success(c, result)
		return
	}
	if result == nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == dto.ErrCodeUnauthorized {
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSig, domainErr.Message)
			return
		}
		h.HandleError(c, err)
		return
	}
	logger.L(c.Request.Context()).Error("Webhook processing failed",
		zap.String("provider", provider),
		zap.String("event_id", result.EventID),
		zap.String("event_type", result.EventType),
		zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Webhook processing failed")
}
