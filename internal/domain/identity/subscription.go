package identity

import (
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentProvider identifies an external billing provider
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPayPal PaymentProvider = "paypal"
	ProviderXendit PaymentProvider = "xendit"
)

// SubscriptionStatus mirrors the provider-side subscription state
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionPending   SubscriptionStatus = "pending"
)

// IsLive reports whether the subscription grants paid-plan access
func (s SubscriptionStatus) IsLive() bool {
	return s == SubscriptionActive || s == SubscriptionTrialing
}

// Subscription records a tenant's paid plan at one provider
type Subscription struct {
	shared.TenantAggregateRoot
	Provider          PaymentProvider
	ExternalID        string
	Plan              TenantPlan
	Status            SubscriptionStatus
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// NewSubscription creates a pending subscription for a provider reference
func NewSubscription(tenantID uuid.UUID, provider PaymentProvider, externalID string, plan TenantPlan) (*Subscription, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "External subscription id is required")
	}
	if !plan.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Unknown subscription plan")
	}
	return &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Provider:            provider,
		ExternalID:          externalID,
		Plan:                plan,
		Status:              SubscriptionPending,
	}, nil
}

// Update applies the provider's latest view of the subscription
func (s *Subscription) Update(status SubscriptionStatus, plan TenantPlan, periodEnd *time.Time, cancelAtPeriodEnd bool) {
	s.Status = status
	if plan.IsValid() {
		s.Plan = plan
	}
	if periodEnd != nil {
		s.CurrentPeriodEnd = periodEnd
	}
	s.CancelAtPeriodEnd = cancelAtPeriodEnd
	s.IncrementVersion()
}
