package billing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	identityapp "github.com/coretrack/backend/internal/application/identity"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// StripeGateway creates Stripe customers and checkout sessions
type StripeGateway interface {
	EnsureCustomer(ctx context.Context, input billing.CustomerInput) (string, error)
	CreateCheckoutSession(ctx context.Context, input billing.CheckoutInput) (*billing.CheckoutSession, error)
}

// CheckoutOptions routes checkouts between providers
type CheckoutOptions struct {
	// XenditCurrencies are tenant currencies billed through Xendit invoices
	XenditCurrencies []string
	// XenditPrices is the monthly price per plan in the tenant currency
	XenditPrices map[identity.TenantPlan]decimal.Decimal
	SuccessURL   string
	FailureURL   string
	// Period is how long a paid Xendit invoice extends the plan
	Period time.Duration
}

// SubscriptionServiceConfig contains the dependencies of SubscriptionService
type SubscriptionServiceConfig struct {
	TX            shared.TransactionScope
	Tenants       identity.TenantRepository
	Subscriptions identity.SubscriptionRepository
	Payments      payment.Repository
	// Stripe and Invoices are nil when the provider is disabled
	Stripe   StripeGateway
	Invoices payment.InvoiceIssuer
	Options  CheckoutOptions
	Events   shared.EventPublisher
	Logger   *zap.Logger
}

// SubscriptionService manages tenant settings, plans and provider subscriptions
type SubscriptionService struct {
	tx       shared.TransactionScope
	tenants  identity.TenantRepository
	subs     identity.SubscriptionRepository
	payments payment.Repository
	stripe   StripeGateway
	invoices payment.InvoiceIssuer
	opts     CheckoutOptions
	events   shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(cfg SubscriptionServiceConfig) *SubscriptionService {
	if cfg.Options.Period <= 0 {
		cfg.Options.Period = 30 * 24 * time.Hour
	}
	return &SubscriptionService{
		tx:       cfg.TX,
		tenants:  cfg.Tenants,
		subs:     cfg.Subscriptions,
		payments: cfg.Payments,
		stripe:   cfg.Stripe,
		invoices: cfg.Invoices,
		opts:     cfg.Options,
		events:   cfg.Events,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// GetTenant returns the caller's tenant
func (s *SubscriptionService) GetTenant(ctx context.Context, actor identity.Actor) (*identityapp.TenantResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	resp := identityapp.ToTenantResponse(tenant)
	return &resp, nil
}

// CurrentSubscription returns the tenant's most recent provider subscription
func (s *SubscriptionService) CurrentSubscription(ctx context.Context, actor identity.Actor) (*SubscriptionResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	sub, err := s.subs.FindLatestForTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// UpdateSettings changes the tenant's name, currency, timezone and locale
func (s *SubscriptionService) UpdateSettings(ctx context.Context, actor identity.Actor, req UpdateSettingsRequest) (*identityapp.TenantResponse, error) {
	if err := actor.RequireOwner(); err != nil {
		return nil, err
	}
	if req.Locale != "" {
		tag, err := language.Parse(req.Locale)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_LOCALE", "Locale must be a BCP 47 language tag")
		}
		req.Locale = tag.String()
	}

	var tenant *identity.Tenant
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenants.FindByID(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		if err := tenant.UpdateSettings(req.Name, req.Currency, req.Timezone, req.Locale); err != nil {
			return err
		}
		return s.tenants.Save(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("tenant settings updated", zap.String("tenant_id", tenant.ID.String()))
	resp := identityapp.ToTenantResponse(tenant)
	return &resp, nil
}

// StartCheckout opens a hosted payment page for plan. Tenants billed in a
// Xendit currency get an invoice; everyone else goes through Stripe Checkout.
func (s *SubscriptionService) StartCheckout(ctx context.Context, actor identity.Actor, req CheckoutRequest) (*CheckoutResponse, error) {
	if err := actor.RequireOwner(); err != nil {
		return nil, err
	}
	plan := identity.TenantPlan(req.Plan)
	if !plan.IsValid() || plan == identity.TenantPlanFree {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be purchased")
	}

	tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	if s.invoices != nil && s.usesXendit(tenant.Currency) {
		return s.xenditCheckout(ctx, tenant, plan)
	}
	if s.stripe != nil {
		return s.stripeCheckout(ctx, tenant, plan)
	}
	return nil, shared.NewDomainError("PAYMENT_PROVIDER_DISABLED", "No payment provider is configured")
}

func (s *SubscriptionService) usesXendit(currency string) bool {
	return slices.ContainsFunc(s.opts.XenditCurrencies, func(c string) bool {
		return strings.EqualFold(c, currency)
	})
}

func (s *SubscriptionService) xenditCheckout(ctx context.Context, tenant *identity.Tenant, plan identity.TenantPlan) (*CheckoutResponse, error) {
	price, ok := s.opts.XenditPrices[plan]
	if !ok || !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan is not priced in "+tenant.Currency)
	}

	invoice, err := s.invoices.CreateInvoice(ctx, payment.InvoiceRequest{
		ExternalID:  fmt.Sprintf("sub-%s-%s-%d", tenant.ID, plan, s.now().Unix()),
		Description: "CoreTrack " + string(plan) + " plan for " + tenant.Name,
		PayerEmail:  tenant.Email,
		Amount:      price,
		Currency:    tenant.Currency,
		SuccessURL:  s.opts.SuccessURL,
		FailureURL:  s.opts.FailureURL,
	})
	if err != nil {
		return nil, shared.WrapDomainError("PAYMENT_PROVIDER_ERROR", "Could not create invoice", err)
	}

	record, err := payment.NewRecord(tenant.ID, identity.ProviderXendit, invoice.ID,
		payment.PurposeSubscription, string(plan), price, tenant.Currency)
	if err != nil {
		return nil, err
	}
	record.CheckoutURL = invoice.URL
	if err := s.tx.Execute(ctx, func(ctx context.Context) error {
		return s.payments.Save(ctx, record)
	}); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("xendit checkout started",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("plan", string(plan)),
		zap.String("invoice_id", invoice.ID))
	return &CheckoutResponse{Provider: string(identity.ProviderXendit), URL: invoice.URL, Reference: invoice.ID}, nil
}

func (s *SubscriptionService) stripeCheckout(ctx context.Context, tenant *identity.Tenant, plan identity.TenantPlan) (*CheckoutResponse, error) {
	customerID, err := s.stripe.EnsureCustomer(ctx, billing.CustomerInput{
		TenantID:   tenant.ID,
		Email:      tenant.Email,
		Name:       tenant.Name,
		ExistingID: tenant.StripeCustomerID,
	})
	if err != nil {
		return nil, shared.WrapDomainError("PAYMENT_PROVIDER_ERROR", "Could not create Stripe customer", err)
	}
	if customerID != tenant.StripeCustomerID {
		err := s.tx.Execute(ctx, func(ctx context.Context) error {
			t, err := s.tenants.FindByID(ctx, tenant.ID)
			if err != nil {
				return err
			}
			t.LinkStripeCustomer(customerID)
			return s.tenants.Save(ctx, t)
		})
		if err != nil {
			return nil, err
		}
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, billing.CheckoutInput{
		TenantID:   tenant.ID,
		CustomerID: customerID,
		Plan:       string(plan),
	})
	if err != nil {
		return nil, shared.WrapDomainError("PAYMENT_PROVIDER_ERROR", "Could not create checkout session", err)
	}

	logger.L(ctx).Info("stripe checkout started",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("plan", string(plan)),
		zap.String("session_id", sess.ID))
	return &CheckoutResponse{Provider: string(identity.ProviderStripe), URL: sess.URL, Reference: sess.ID}, nil
}

// ApplySubscriptionEvent records a provider's subscription state and moves
// the tenant's plan and status along with it
func (s *SubscriptionService) ApplySubscriptionEvent(ctx context.Context, change SubscriptionChange) error {
	if change.ExternalID == "" {
		return shared.NewDomainError("INVALID_SUBSCRIPTION", "External subscription id is required")
	}

	var tenant *identity.Tenant
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenants.FindByID(ctx, change.TenantID)
		if err != nil {
			return err
		}

		sub, err := s.subs.FindByExternalID(ctx, change.Provider, change.ExternalID)
		if errors.Is(err, shared.ErrNotFound) {
			plan := change.Plan
			if !plan.IsValid() {
				plan = tenant.Plan
			}
			sub, err = identity.NewSubscription(tenant.ID, change.Provider, change.ExternalID, plan)
		}
		if err != nil {
			return err
		}
		if sub.TenantID != tenant.ID {
			return shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription belongs to another tenant")
		}

		sub.Update(change.Status, change.Plan, change.PeriodEnd, change.CancelAtPeriodEnd)
		if err := s.subs.Save(ctx, sub); err != nil {
			return err
		}

		if change.CustomerID != "" && tenant.StripeCustomerID != change.CustomerID {
			tenant.LinkStripeCustomer(change.CustomerID)
		}
		if err := s.applyToTenant(tenant, sub); err != nil {
			return err
		}
		return s.tenants.Save(ctx, tenant)
	})
	if err != nil {
		return err
	}

	if err := shared.PublishAndClear(ctx, s.events, tenant); err != nil {
		logger.L(ctx).Warn("publish tenant events", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}
	s.logger.Info("Subscription change applied",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("provider", string(change.Provider)),
		zap.String("external_id", change.ExternalID),
		zap.String("status", string(change.Status)),
		zap.String("tenant_status", string(tenant.Status)),
		zap.String("plan", string(tenant.Plan)))
	return nil
}

func (s *SubscriptionService) applyToTenant(tenant *identity.Tenant, sub *identity.Subscription) error {
	// A Stripe tenant follows only its current subscription; stale ones are recorded but ignored.
	if sub.Provider == identity.ProviderStripe && tenant.StripeSubscriptionID != "" &&
		tenant.StripeSubscriptionID != sub.ExternalID && !sub.Status.IsLive() {
		return nil
	}

	switch sub.Status {
	case identity.SubscriptionActive, identity.SubscriptionTrialing:
		if err := tenant.ApplySubscription(sub.Plan, sub.CurrentPeriodEnd); err != nil {
			return err
		}
		if sub.Provider == identity.ProviderStripe {
			tenant.SetStripeSubscriptionID(sub.ExternalID)
		}
	case identity.SubscriptionPastDue:
		tenant.MarkPastDue()
	case identity.SubscriptionSuspended:
		if tenant.Status != identity.TenantStatusSuspended {
			return tenant.Suspend()
		}
	case identity.SubscriptionCancelled, identity.SubscriptionExpired:
		if tenant.Plan != identity.TenantPlanFree || tenant.Status != identity.TenantStatusActive {
			tenant.CancelSubscription()
		}
	}
	return nil
}

// ExpireTrials ends every trial whose end date has passed. Tenants continue
// on the free plan. It returns the number of trials ended.
func (s *SubscriptionService) ExpireTrials(ctx context.Context) (int, error) {
	now := s.now()
	tenants, err := s.tenants.FindTrialsEndingBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range tenants {
		tenantID := tenants[i].ID
		var changed bool
		err := s.tx.Execute(ctx, func(ctx context.Context) error {
			t, err := s.tenants.FindByID(ctx, tenantID)
			if err != nil {
				return err
			}
			if changed = t.ExpireTrial(now); !changed {
				return nil
			}
			return s.tenants.Save(ctx, t)
		})
		if err != nil {
			s.logger.Warn("Failed to expire trial", zap.String("tenant_id", tenantID.String()), zap.Error(err))
			continue
		}
		if changed {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("Trials expired", zap.Int("count", expired))
	}
	return expired, nil
}
