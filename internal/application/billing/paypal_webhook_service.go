package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"go.uber.org/zap"
)

// PayPalVerifier verifies webhook deliveries with PayPal
type PayPalVerifier interface {
	VerifyWebhook(ctx context.Context, headers billing.PayPalHeaders, payload []byte) (*billing.PayPalEvent, error)
	Config() *billing.PayPalConfig
}

// PayPalWebhookService handles PayPal subscription webhooks
type PayPalWebhookService struct {
	verifier      PayPalVerifier
	subscriptions *SubscriptionService
	subRepo       identity.SubscriptionRepository
	payments      payment.Repository
	tx            shared.TransactionScope
	guard         webhookGuard
	logger        *zap.Logger
	now           func() time.Time
}

// PayPalWebhookServiceConfig contains configuration for PayPalWebhookService
type PayPalWebhookServiceConfig struct {
	Verifier      PayPalVerifier
	Subscriptions *SubscriptionService
	SubRepo       identity.SubscriptionRepository
	Payments      payment.Repository
	TX            shared.TransactionScope
	Idempotency   shared.IdempotencyStore
	Metrics       WebhookRecorder
	Logger        *zap.Logger
}

// NewPayPalWebhookService creates a new PayPalWebhookService
func NewPayPalWebhookService(cfg PayPalWebhookServiceConfig) *PayPalWebhookService {
	return &PayPalWebhookService{
		verifier:      cfg.Verifier,
		subscriptions: cfg.Subscriptions,
		subRepo:       cfg.SubRepo,
		payments:      cfg.Payments,
		tx:            cfg.TX,
		guard:         webhookGuard{store: cfg.Idempotency, metrics: cfg.Metrics, logger: cfg.Logger},
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// ProcessWebhook verifies and processes a PayPal webhook delivery
func (s *PayPalWebhookService) ProcessWebhook(ctx context.Context, headers billing.PayPalHeaders, payload []byte) (*WebhookResult, error) {
	event, err := s.verifier.VerifyWebhook(ctx, headers, payload)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			return nil, shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid webhook signature", err)
		}
		return nil, err
	}

	s.logger.Info("Processing PayPal webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType))

	return s.guard.run(ctx, string(identity.ProviderPayPal), event.ID, event.EventType, func(ctx context.Context) error {
		switch event.EventType {
		case "BILLING.SUBSCRIPTION.ACTIVATED":
			return s.handleSubscription(ctx, event, identity.SubscriptionActive)
		case "BILLING.SUBSCRIPTION.CANCELLED":
			return s.handleSubscription(ctx, event, identity.SubscriptionCancelled)
		case "BILLING.SUBSCRIPTION.SUSPENDED":
			return s.handleSubscription(ctx, event, identity.SubscriptionSuspended)
		case "BILLING.SUBSCRIPTION.EXPIRED":
			return s.handleSubscription(ctx, event, identity.SubscriptionExpired)
		case "PAYMENT.SALE.COMPLETED":
			return s.handleSaleCompleted(ctx, event)
		default:
			s.logger.Debug("Unhandled PayPal event type", zap.String("event_type", event.EventType))
			return nil
		}
	})
}

func (s *PayPalWebhookService) handleSubscription(ctx context.Context, event *billing.PayPalEvent, status identity.SubscriptionStatus) error {
	var sub billing.PayPalSubscription
	if err := json.Unmarshal(event.Resource, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	tenantID, ok := parseTenantID(sub.CustomID)
	if !ok {
		existing, err := s.subRepo.FindByExternalID(ctx, identity.ProviderPayPal, sub.ID)
		if err != nil {
			s.logger.Warn("Tenant not found for PayPal subscription",
				zap.String("subscription_id", sub.ID), zap.Error(err))
			return nil
		}
		tenantID = existing.TenantID
	}

	var plan identity.TenantPlan
	if name, ok := s.verifier.Config().PlanFor(sub.PlanID); ok {
		plan = identity.TenantPlan(name)
	}
	return s.subscriptions.ApplySubscriptionEvent(ctx, SubscriptionChange{
		TenantID:   tenantID,
		Provider:   identity.ProviderPayPal,
		ExternalID: sub.ID,
		Plan:       plan,
		Status:     status,
		PeriodEnd:  sub.BillingInfo.NextBillingTime,
	})
}

// handleSaleCompleted records a subscription payment
func (s *PayPalWebhookService) handleSaleCompleted(ctx context.Context, event *billing.PayPalEvent) error {
	var sale billing.PayPalSale
	if err := json.Unmarshal(event.Resource, &sale); err != nil {
		return fmt.Errorf("failed to unmarshal sale: %w", err)
	}
	if sale.BillingAgreementID == "" {
		s.logger.Debug("PayPal sale is not for a subscription, skipping", zap.String("sale_id", sale.ID))
		return nil
	}

	sub, err := s.subRepo.FindByExternalID(ctx, identity.ProviderPayPal, sale.BillingAgreementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Subscription not found for PayPal sale",
				zap.String("sale_id", sale.ID),
				zap.String("subscription_id", sale.BillingAgreementID))
			return nil
		}
		return err
	}

	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		record, err := s.payments.FindByExternalID(ctx, identity.ProviderPayPal, sale.ID)
		if errors.Is(err, shared.ErrNotFound) {
			record, err = payment.NewRecord(sub.TenantID, identity.ProviderPayPal, sale.ID,
				payment.PurposeSubscription, sub.ExternalID, sale.Amount.Total, sale.Amount.Currency)
		}
		if err != nil {
			return err
		}
		changed, err := record.Transition(payment.StatusPaid, event.Resource, s.now())
		if err != nil || !changed {
			return nil
		}
		return s.payments.Save(ctx, record)
	})
	if err != nil {
		return err
	}

	if sub.Status.IsLive() {
		return nil
	}
	return s.subscriptions.ApplySubscriptionEvent(ctx, SubscriptionChange{
		TenantID:   sub.TenantID,
		Provider:   identity.ProviderPayPal,
		ExternalID: sub.ExternalID,
		Status:     identity.SubscriptionActive,
	})
}
