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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

// StripeEventVerifier checks the Stripe-Signature header and decodes the event
type StripeEventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// PriceResolver maps Stripe price ids back to plans
type PriceResolver interface {
	PlanForPrice(priceID string) (string, bool)
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	verifier      StripeEventVerifier
	prices        PriceResolver
	subscriptions *SubscriptionService
	tenantRepo    identity.TenantRepository
	payments      payment.Repository
	tx            shared.TransactionScope
	guard         webhookGuard
	logger        *zap.Logger
	now           func() time.Time
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Verifier      StripeEventVerifier
	Prices        PriceResolver
	Subscriptions *SubscriptionService
	TenantRepo    identity.TenantRepository
	Payments      payment.Repository
	TX            shared.TransactionScope
	Idempotency   shared.IdempotencyStore
	Metrics       WebhookRecorder
	Logger        *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	return &StripeWebhookService{
		verifier:      cfg.Verifier,
		prices:        cfg.Prices,
		subscriptions: cfg.Subscriptions,
		tenantRepo:    cfg.TenantRepo,
		payments:      cfg.Payments,
		tx:            cfg.TX,
		guard:         webhookGuard{store: cfg.Idempotency, metrics: cfg.Metrics, logger: cfg.Logger},
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// ProcessWebhook processes a Stripe webhook event
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verifier.ConstructEvent(payload, signature)
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid webhook signature", err)
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	return s.guard.run(ctx, string(identity.ProviderStripe), event.ID, string(event.Type), func(ctx context.Context) error {
		switch event.Type {
		case "checkout.session.completed":
			return s.handleCheckoutCompleted(ctx, event)
		case "customer.subscription.created", "customer.subscription.updated":
			return s.handleSubscription(ctx, event, false)
		case "customer.subscription.deleted":
			return s.handleSubscription(ctx, event, true)
		case "invoice.paid":
			return s.handleInvoice(ctx, event, payment.StatusPaid)
		case "invoice.payment_failed":
			return s.handleInvoice(ctx, event, payment.StatusFailed)
		default:
			s.logger.Debug("Unhandled webhook event type",
				zap.String("event_type", string(event.Type)))
			return nil
		}
	})
}

// handleCheckoutCompleted activates the plan bought through Checkout
func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	if sess.Mode != stripe.CheckoutSessionModeSubscription || sess.Subscription == nil {
		s.logger.Debug("Checkout session is not a subscription, skipping", zap.String("session_id", sess.ID))
		return nil
	}

	customerID := customerOf(sess.Customer)
	tenantID, ok := parseTenantID(sess.Metadata["tenant_id"])
	if !ok {
		tenantID, ok = parseTenantID(sess.ClientReferenceID)
	}
	if !ok {
		tenantID, ok = s.resolveTenant(ctx, nil, customerID, sess.Subscription.ID)
	}
	if !ok {
		s.logger.Warn("Tenant not found for checkout session", zap.String("session_id", sess.ID))
		return nil
	}

	return s.subscriptions.ApplySubscriptionEvent(ctx, SubscriptionChange{
		TenantID:   tenantID,
		Provider:   identity.ProviderStripe,
		ExternalID: sess.Subscription.ID,
		Plan:       identity.TenantPlan(sess.Metadata["plan"]),
		Status:     identity.SubscriptionActive,
		CustomerID: customerID,
	})
}

// handleSubscription mirrors a subscription's state onto the tenant
func (s *StripeWebhookService) handleSubscription(ctx context.Context, event stripe.Event, deleted bool) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	customerID := customerOf(sub.Customer)
	tenantID, ok := s.resolveTenant(ctx, sub.Metadata, customerID, sub.ID)
	if !ok {
		// Webhooks may arrive for customers outside CoreTrack; acknowledge to stop retries.
		s.logger.Warn("Tenant not found for subscription",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", customerID))
		return nil
	}

	status := mapStripeSubscriptionStatus(sub.Status)
	if deleted {
		status = identity.SubscriptionCancelled
	}
	change := SubscriptionChange{
		TenantID:          tenantID,
		Provider:          identity.ProviderStripe,
		ExternalID:        sub.ID,
		Plan:              s.planOf(&sub),
		Status:            status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CustomerID:        customerID,
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		change.PeriodEnd = &end
	}
	return s.subscriptions.ApplySubscriptionEvent(ctx, change)
}

// handleInvoice records a renewal payment and follows its outcome
func (s *StripeWebhookService) handleInvoice(ctx context.Context, event stripe.Event, status payment.Status) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	subscriptionID := ""
	if inv.Subscription != nil {
		subscriptionID = inv.Subscription.ID
	}
	if subscriptionID == "" {
		s.logger.Debug("Invoice is not for a subscription, skipping", zap.String("invoice_id", inv.ID))
		return nil
	}

	customerID := customerOf(inv.Customer)
	tenantID, ok := s.resolveTenant(ctx, inv.Metadata, customerID, subscriptionID)
	if !ok {
		s.logger.Warn("Tenant not found for invoice",
			zap.String("invoice_id", inv.ID),
			zap.String("customer_id", customerID))
		return nil
	}

	amount := inv.AmountPaid
	if status != payment.StatusPaid {
		amount = inv.AmountDue
	}
	if err := s.recordPayment(ctx, tenantID, inv.ID, subscriptionID, decimal.New(amount, -2), string(inv.Currency), status, event.Data.Raw); err != nil {
		return err
	}

	subStatus := identity.SubscriptionActive
	if status != payment.StatusPaid {
		subStatus = identity.SubscriptionPastDue
	}
	return s.subscriptions.ApplySubscriptionEvent(ctx, SubscriptionChange{
		TenantID:   tenantID,
		Provider:   identity.ProviderStripe,
		ExternalID: subscriptionID,
		Status:     subStatus,
		CustomerID: customerID,
	})
}

func (s *StripeWebhookService) recordPayment(ctx context.Context, tenantID uuid.UUID, invoiceID, subscriptionID string, amount decimal.Decimal, currency string, status payment.Status, raw json.RawMessage) error {
	return s.tx.Execute(ctx, func(ctx context.Context) error {
		record, err := s.payments.FindByExternalID(ctx, identity.ProviderStripe, invoiceID)
		if errors.Is(err, shared.ErrNotFound) {
			record, err = payment.NewRecord(tenantID, identity.ProviderStripe, invoiceID,
				payment.PurposeSubscription, subscriptionID, amount, currency)
		}
		if err != nil {
			return err
		}
		changed, err := record.Transition(status, raw, s.now())
		if err != nil {
			s.logger.Warn("Ignoring payment transition",
				zap.String("invoice_id", invoiceID),
				zap.String("status", string(status)),
				zap.Error(err))
			return nil
		}
		if !changed {
			return nil
		}
		return s.payments.Save(ctx, record)
	})
}

// resolveTenant finds the tenant from metadata, the customer or the subscription
func (s *StripeWebhookService) resolveTenant(ctx context.Context, metadata map[string]string, customerID, subscriptionID string) (uuid.UUID, bool) {
	if id, ok := parseTenantID(metadata["tenant_id"]); ok {
		return id, true
	}
	if customerID != "" {
		tenant, err := s.tenantRepo.FindByStripeCustomerID(ctx, customerID)
		if err == nil {
			return tenant.ID, true
		}
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Tenant lookup by customer failed", zap.String("customer_id", customerID), zap.Error(err))
		}
	}
	if subscriptionID != "" {
		tenant, err := s.tenantRepo.FindByStripeSubscriptionID(ctx, subscriptionID)
		if err == nil {
			return tenant.ID, true
		}
	}
	return uuid.Nil, false
}

// planOf reads the plan from metadata, falling back to the price of the first item
func (s *StripeWebhookService) planOf(sub *stripe.Subscription) identity.TenantPlan {
	if plan := identity.TenantPlan(sub.Metadata["plan"]); plan.IsValid() {
		return plan
	}
	if s.prices != nil && sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			if plan, ok := s.prices.PlanForPrice(item.Price.ID); ok {
				return identity.TenantPlan(plan)
			}
		}
	}
	return ""
}

func customerOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) identity.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return identity.SubscriptionActive
	case stripe.SubscriptionStatusTrialing:
		return identity.SubscriptionTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return identity.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		return identity.SubscriptionCancelled
	case stripe.SubscriptionStatusIncompleteExpired:
		return identity.SubscriptionExpired
	case stripe.SubscriptionStatusPaused:
		return identity.SubscriptionSuspended
	default:
		return identity.SubscriptionPending
	}
}
