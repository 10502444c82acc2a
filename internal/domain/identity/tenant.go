package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
)

// TenantStatus represents the lifecycle status of a tenant account
type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "trial"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusPastDue   TenantStatus = "past_due"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCancelled TenantStatus = "cancelled"
)

// IsValid reports whether s is a known tenant status
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusTrial, TenantStatusActive, TenantStatusPastDue, TenantStatusSuspended, TenantStatusCancelled:
		return true
	}
	return false
}

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanFree       TenantPlan = "free"
	TenantPlanStarter    TenantPlan = "starter"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

// IsValid reports whether p is a known plan
func (p TenantPlan) IsValid() bool {
	switch p {
	case TenantPlanFree, TenantPlanStarter, TenantPlanPro, TenantPlanEnterprise:
		return true
	}
	return false
}

// PlanLimits caps what a tenant may create. Zero means unlimited.
type PlanLimits struct {
	MaxLocations int
	MaxUsers     int
}

var planLimits = map[TenantPlan]PlanLimits{
	TenantPlanFree:       {MaxLocations: 1, MaxUsers: 3},
	TenantPlanStarter:    {MaxLocations: 3, MaxUsers: 10},
	TenantPlanPro:        {MaxLocations: 10, MaxUsers: 50},
	TenantPlanEnterprise: {},
}

// Limits returns the limits of the plan
func (p TenantPlan) Limits() PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[TenantPlanFree]
}

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9]+`)
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Tenant is a customer business account. Every other record is scoped by its ID.
type Tenant struct {
	shared.BaseAggregateRoot
	Name                 string
	Slug                 string
	Status               TenantStatus
	Plan                 TenantPlan
	Currency             string
	Timezone             string
	Locale               string
	Email                string
	StripeCustomerID     string
	StripeSubscriptionID string
	TrialEndsAt          *time.Time
	PlanExpiresAt        *time.Time
}

// NewTrialTenant creates a tenant on the free plan with a trial period
func NewTrialTenant(name, email string, trialDays int) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Business name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Business name cannot exceed 200 characters")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Business name must contain letters or digits")
	}

	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Status:            TenantStatusTrial,
		Plan:              TenantPlanFree,
		Currency:          "USD",
		Timezone:          "UTC",
		Locale:            "en-US",
		Email:             strings.ToLower(strings.TrimSpace(email)),
	}
	if trialDays > 0 {
		ends := t.CreatedAt.AddDate(0, 0, trialDays)
		t.TrialEndsAt = &ends
	} else {
		t.Status = TenantStatusActive
	}
	t.AddDomainEvent(NewTenantCreatedEvent(t))
	return t, nil
}

// Slugify lowercases s and collapses every non-alphanumeric run into a dash
func Slugify(s string) string {
	s = slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// UpdateSettings changes display and locale settings
func (t *Tenant) UpdateSettings(name, currency, timezone, locale string) error {
	name = strings.TrimSpace(name)
	if name != "" {
		if len(name) > 200 {
			return shared.NewDomainError("INVALID_TENANT_NAME", "Business name cannot exceed 200 characters")
		}
		t.Name = name
	}
	if currency != "" {
		currency = strings.ToUpper(currency)
		if !currencyRe.MatchString(currency) {
			return shared.NewDomainError("INVALID_CURRENCY", "Currency must be an ISO 4217 code")
		}
		t.Currency = currency
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone")
		}
		t.Timezone = timezone
	}
	if locale != "" {
		t.Locale = locale
	}
	t.IncrementVersion()
	return nil
}

// SetPlan switches the subscription plan
func (t *Tenant) SetPlan(plan TenantPlan) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_PLAN", "Unknown subscription plan")
	}
	if t.Plan == plan {
		return nil
	}
	old := t.Plan
	t.Plan = plan
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantPlanChangedEvent(t, old))
	return nil
}

// LinkStripeCustomer stores the Stripe customer id
func (t *Tenant) LinkStripeCustomer(customerID string) {
	t.StripeCustomerID = customerID
	t.Touch()
}

// SetStripeSubscriptionID stores the Stripe subscription id
func (t *Tenant) SetStripeSubscriptionID(subscriptionID string) {
	t.StripeSubscriptionID = subscriptionID
	t.Touch()
}

// ApplySubscription moves the tenant to a paid plan that is valid until periodEnd
func (t *Tenant) ApplySubscription(plan TenantPlan, periodEnd *time.Time) error {
	if t.Status == TenantStatusCancelled && plan == TenantPlanFree {
		return shared.NewDomainError("INVALID_STATE", "Cancelled tenant cannot be reactivated on the free plan")
	}
	if err := t.SetPlan(plan); err != nil {
		return err
	}
	t.Status = TenantStatusActive
	t.TrialEndsAt = nil
	t.PlanExpiresAt = periodEnd
	t.Touch()
	return nil
}

// MarkPastDue flags a failed renewal payment
func (t *Tenant) MarkPastDue() {
	if t.Status == TenantStatusCancelled {
		return
	}
	t.Status = TenantStatusPastDue
	t.IncrementVersion()
}

// Suspend blocks the tenant from operating
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.IncrementVersion()
	return nil
}

// CancelSubscription drops the tenant back to the free plan
func (t *Tenant) CancelSubscription() {
	t.Plan = TenantPlanFree
	t.Status = TenantStatusActive
	t.StripeSubscriptionID = ""
	t.PlanExpiresAt = nil
	t.IncrementVersion()
}

// Activate re-enables a suspended or past-due tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.IncrementVersion()
	return nil
}

// IsTrialExpired reports whether the trial has ended at now
func (t *Tenant) IsTrialExpired(now time.Time) bool {
	return t.Status == TenantStatusTrial && t.TrialEndsAt != nil && now.After(*t.TrialEndsAt)
}

// ExpireTrial ends an expired trial; the tenant continues on the free plan
func (t *Tenant) ExpireTrial(now time.Time) bool {
	if !t.IsTrialExpired(now) {
		return false
	}
	t.Status = TenantStatusActive
	t.Plan = TenantPlanFree
	t.TrialEndsAt = nil
	t.IncrementVersion()
	return true
}

// IsOperational reports whether the tenant may record sales and stock movements
func (t *Tenant) IsOperational() bool {
	return t.Status == TenantStatusTrial || t.Status == TenantStatusActive || t.Status == TenantStatusPastDue
}

// CanAddLocation reports whether one more location fits the plan
func (t *Tenant) CanAddLocation(current int) bool {
	max := t.effectivePlan().Limits().MaxLocations
	return max == 0 || current < max
}

// CanAddUser reports whether one more user fits the plan
func (t *Tenant) CanAddUser(current int) bool {
	max := t.effectivePlan().Limits().MaxUsers
	return max == 0 || current < max
}

// Limits returns the limits in force, counting trial upgrades
func (t *Tenant) Limits() PlanLimits {
	return t.effectivePlan().Limits()
}

// trial tenants get starter limits
func (t *Tenant) effectivePlan() TenantPlan {
	if t.Status == TenantStatusTrial && t.Plan == TenantPlanFree {
		return TenantPlanStarter
	}
	return t.Plan
}
