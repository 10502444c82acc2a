package identity

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository persists tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Tenant, error)
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*Tenant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, int64, error)
	FindTrialsEndingBefore(ctx context.Context, before time.Time) ([]Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, tenant *Tenant) error
}

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountActiveOwners(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, user *User) error
}

// SubscriptionRepository persists provider subscriptions
type SubscriptionRepository interface {
	FindByExternalID(ctx context.Context, provider PaymentProvider, externalID string) (*Subscription, error)
	FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	Save(ctx context.Context, sub *Subscription) error
}
