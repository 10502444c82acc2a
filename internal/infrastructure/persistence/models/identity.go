package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate root.
type TenantModel struct {
	AggregateModel
	Name                 string                `gorm:"type:varchar(200);not null"`
	Slug                 string                `gorm:"type:varchar(200);not null;uniqueIndex"`
	Status               identity.TenantStatus `gorm:"type:varchar(20);not null;index"`
	Plan                 identity.TenantPlan   `gorm:"type:varchar(20);not null"`
	Currency             string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Timezone             string                `gorm:"type:varchar(64);not null;default:'UTC'"`
	Locale               string                `gorm:"type:varchar(20);not null;default:'en-US'"`
	Email                string                `gorm:"type:varchar(200)"`
	StripeCustomerID     string                `gorm:"type:varchar(100);index"`
	StripeSubscriptionID string                `gorm:"type:varchar(100);index"`
	TrialEndsAt          *time.Time            `gorm:"index"`
	PlanExpiresAt        *time.Time            `gorm:"column:plan_expires_at"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		Name:                 m.Name,
		Slug:                 m.Slug,
		Status:               m.Status,
		Plan:                 m.Plan,
		Currency:             m.Currency,
		Timezone:             m.Timezone,
		Locale:               m.Locale,
		Email:                m.Email,
		StripeCustomerID:     m.StripeCustomerID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		TrialEndsAt:          m.TrialEndsAt,
		PlanExpiresAt:        m.PlanExpiresAt,
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{
		Name:                 t.Name,
		Slug:                 t.Slug,
		Status:               t.Status,
		Plan:                 t.Plan,
		Currency:             t.Currency,
		Timezone:             t.Timezone,
		Locale:               t.Locale,
		Email:                t.Email,
		StripeCustomerID:     t.StripeCustomerID,
		StripeSubscriptionID: t.StripeSubscriptionID,
		TrialEndsAt:          t.TrialEndsAt,
		PlanExpiresAt:        t.PlanExpiresAt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User aggregate root.
// Emails are unique across tenants because login is by email alone.
type UserModel struct {
	TenantAggregateModel
	Email        string        `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name         string        `gorm:"type:varchar(200);not null"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null"`
	LocationIDs  []string      `gorm:"type:text;serializer:json"`
	Active       bool          `gorm:"not null"`
	LastLoginAt  *time.Time    `gorm:"column:last_login_at"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Email:               m.Email,
		Name:                m.Name,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		LocationIDs:         locationIDs(m.LocationIDs),
		Active:              m.Active,
		LastLoginAt:         m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		LocationIDs:  locationStrings(u.LocationIDs),
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}

// SubscriptionModel is the persistence model for provider subscriptions.
type SubscriptionModel struct {
	TenantAggregateModel
	Provider          identity.PaymentProvider    `gorm:"type:varchar(20);not null;uniqueIndex:idx_subscription_external,priority:1"`
	ExternalID        string                      `gorm:"type:varchar(100);not null;uniqueIndex:idx_subscription_external,priority:2"`
	Plan              identity.TenantPlan         `gorm:"type:varchar(20);not null"`
	Status            identity.SubscriptionStatus `gorm:"type:varchar(20);not null"`
	CurrentPeriodEnd  *time.Time                  `gorm:"column:current_period_end"`
	CancelAtPeriodEnd bool                        `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription.
func (m *SubscriptionModel) ToDomain() *identity.Subscription {
	return &identity.Subscription{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Provider:            m.Provider,
		ExternalID:          m.ExternalID,
		Plan:                m.Plan,
		Status:              m.Status,
		CurrentPeriodEnd:    m.CurrentPeriodEnd,
		CancelAtPeriodEnd:   m.CancelAtPeriodEnd,
	}
}

// SubscriptionModelFromDomain creates a persistence model from a domain Subscription.
func SubscriptionModelFromDomain(s *identity.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{
		Provider:          s.Provider,
		ExternalID:        s.ExternalID,
		Plan:              s.Plan,
		Status:            s.Status,
		CurrentPeriodEnd:  s.CurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
