package identity

import (
	"github.com/coretrack/backend/internal/domain/shared"
)

const (
	AggregateTypeTenant = "Tenant"
	AggregateTypeUser   = "User"

	EventTypeTenantCreated     = "TenantCreated"
	EventTypeTenantPlanChanged = "TenantPlanChanged"
	EventTypeUserCreated       = "UserCreated"
	EventTypeUserDeactivated   = "UserDeactivated"
)

// TenantCreatedEvent is raised when a new business signs up
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Name string     `json:"name"`
	Plan TenantPlan `json:"plan"`
}

func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, t.ID, t.ID),
		Name:            t.Name,
		Plan:            t.Plan,
	}
}

// TenantPlanChangedEvent is raised when the subscription plan changes
type TenantPlanChangedEvent struct {
	shared.BaseDomainEvent
	OldPlan TenantPlan `json:"old_plan"`
	NewPlan TenantPlan `json:"new_plan"`
}

func NewTenantPlanChangedEvent(t *Tenant, old TenantPlan) *TenantPlanChangedEvent {
	return &TenantPlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantPlanChanged, AggregateTypeTenant, t.ID, t.ID),
		OldPlan:         old,
		NewPlan:         t.Plan,
	}
}

// UserCreatedEvent is raised when a team member is added
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, u.ID, u.TenantID),
		Email:           u.Email,
		Role:            u.Role,
	}
}

// UserDeactivatedEvent is raised when a team member loses access
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

func NewUserDeactivatedEvent(u *User) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeactivated, AggregateTypeUser, u.ID, u.TenantID),
		Email:           u.Email,
	}
}
