package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"go.uber.org/zap"
)

// XenditVerifier checks the callback token and decodes an invoice callback
type XenditVerifier interface {
	VerifyCallback(payload []byte, token string) (*billing.XenditCallback, error)
}

// XenditWebhookService settles POS sales and subscription invoices paid through Xendit
type XenditWebhookService struct {
	verifier      XenditVerifier
	subscriptions *SubscriptionService
	payments      payment.Repository
	sales         pos.Repository
	tx            shared.TransactionScope
	guard         webhookGuard
	logger        *zap.Logger
	now           func() time.Time
}

// XenditWebhookServiceConfig contains configuration for XenditWebhookService
type XenditWebhookServiceConfig struct {
	Verifier      XenditVerifier
	Subscriptions *SubscriptionService
	Payments      payment.Repository
	Sales         pos.Repository
	TX            shared.TransactionScope
	Idempotency   shared.IdempotencyStore
	Metrics       WebhookRecorder
	Logger        *zap.Logger
}

// NewXenditWebhookService creates a new XenditWebhookService
func NewXenditWebhookService(cfg XenditWebhookServiceConfig) *XenditWebhookService {
	return &XenditWebhookService{
		verifier:      cfg.Verifier,
		subscriptions: cfg.Subscriptions,
		payments:      cfg.Payments,
		sales:         cfg.Sales,
		tx:            cfg.TX,
		guard:         webhookGuard{store: cfg.Idempotency, metrics: cfg.Metrics, logger: cfg.Logger},
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// ProcessCallback verifies and processes an invoice callback
func (s *XenditWebhookService) ProcessCallback(ctx context.Context, payload []byte, token string) (*WebhookResult, error) {
	cb, err := s.verifier.VerifyCallback(payload, token)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			return nil, shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid callback token", err)
		}
		return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Malformed callback", err)
	}

	eventType := "invoice." + strings.ToLower(cb.Status)
	status, ok := cb.PaymentStatus()
	if !ok || status == payment.StatusPending {
		s.logger.Debug("Ignoring Xendit callback status", zap.String("invoice_id", cb.ID), zap.String("status", cb.Status))
		return &WebhookResult{EventID: cb.ID, EventType: eventType, Processed: true, Message: "Status not handled"}, nil
	}

	// Xendit has no event id; an invoice reports each status once.
	eventID := cb.ID + ":" + strings.ToUpper(cb.Status)
	return s.guard.run(ctx, string(identity.ProviderXendit), eventID, eventType, func(ctx context.Context) error {
		return s.settle(ctx, cb, status, payload)
	})
}

func (s *XenditWebhookService) settle(ctx context.Context, cb *billing.XenditCallback, status payment.Status, raw []byte) error {
	var record *payment.Record
	changed := false
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.payments.FindByExternalID(ctx, identity.ProviderXendit, cb.ID)
		if err != nil {
			return err
		}
		changed, err = record.Transition(status, raw, s.now())
		if err != nil {
			s.logger.Warn("Ignoring Xendit payment transition",
				zap.String("invoice_id", cb.ID),
				zap.String("from", string(record.Status)),
				zap.String("to", string(status)),
				zap.Error(err))
			return nil
		}
		if !changed {
			return nil
		}
		if err := s.payments.Save(ctx, record); err != nil {
			return err
		}
		if record.Purpose == payment.PurposeSale {
			return s.settleSale(ctx, record, cb.ID, status)
		}
		return nil
	})
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Payment not found for Xendit invoice",
			zap.String("invoice_id", cb.ID),
			zap.String("external_id", cb.ExternalID))
		return nil
	}
	if err != nil || !changed {
		return err
	}

	if record.Purpose == payment.PurposeSubscription && status == payment.StatusPaid {
		end := s.now().Add(s.subscriptions.opts.Period).UTC()
		return s.subscriptions.ApplySubscriptionEvent(ctx, SubscriptionChange{
			TenantID:   record.TenantID,
			Provider:   identity.ProviderXendit,
			ExternalID: cb.ID,
			Plan:       identity.TenantPlan(record.ReferenceID),
			Status:     identity.SubscriptionActive,
			PeriodEnd:  &end,
		})
	}
	return nil
}

func (s *XenditWebhookService) settleSale(ctx context.Context, record *payment.Record, invoiceID string, status payment.Status) error {
	order, err := s.sales.FindByPaymentRef(ctx, record.TenantID, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Sale not found for Xendit invoice", zap.String("invoice_id", invoiceID))
			return nil
		}
		return err
	}

	if status == payment.StatusPaid {
		if err := order.MarkPaid(invoiceID); err != nil {
			s.logger.Warn("Paid invoice for a sale that cannot be paid",
				zap.String("sale_id", order.ID.String()),
				zap.String("invoice_id", invoiceID),
				zap.Error(err))
			return nil
		}
	} else {
		order.MarkPaymentFailed(invoiceID)
	}

	s.logger.Info("Sale payment settled",
		zap.String("sale_id", order.ID.String()),
		zap.String("payment_status", string(order.PaymentStatus)))
	return s.sales.Save(ctx, order)
}
