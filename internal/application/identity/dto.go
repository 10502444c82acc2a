package identity

import (
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// SignUpInput creates a new business account
type SignUpInput struct {
	TenantName string `json:"tenant_name" binding:"required,max=200"`
	OwnerName  string `json:"owner_name" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
}

// LoginInput authenticates by email
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshInput exchanges a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput revokes the caller's tokens
type LogoutInput struct {
	AccessClaims *auth.Claims `json:"-"`
	RefreshToken string       `json:"refresh_token"`
}

// InviteUserInput adds a team member
type InviteUserInput struct {
	Email       string   `json:"email" binding:"required,email"`
	Name        string   `json:"name" binding:"required,max=100"`
	Password    string   `json:"password" binding:"required,min=8,max=72"`
	Role        string   `json:"role" binding:"required,oneof=owner manager staff"`
	LocationIDs []string `json:"location_ids" binding:"omitempty,dive,location_id"`
}

// UpdateUserInput changes a team member's role, name or locations. Nil
// fields are left unchanged.
type UpdateUserInput struct {
	Name        *string  `json:"name" binding:"omitempty,max=100"`
	Role        *string  `json:"role" binding:"omitempty,oneof=owner manager staff"`
	LocationIDs []string `json:"location_ids" binding:"omitempty,dive,location_id"`
}

// UserResponse is a team member as returned by the API
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	LocationIDs []string   `json:"location_ids"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToUserResponse maps a user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		LocationIDs: locationStrings(u.LocationIDs),
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// TenantResponse is the account summary returned by Me and the tenant endpoints
type TenantResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Status        string     `json:"status"`
	Plan          string     `json:"plan"`
	Currency      string     `json:"currency"`
	Timezone      string     `json:"timezone"`
	Locale        string     `json:"locale"`
	TrialEndsAt   *time.Time `json:"trial_ends_at,omitempty"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	MaxLocations  int        `json:"max_locations"`
	MaxUsers      int        `json:"max_users"`
}

// ToTenantResponse maps a tenant
func ToTenantResponse(t *identity.Tenant) TenantResponse {
	limits := t.Limits()
	return TenantResponse{
		ID:            t.ID,
		Name:          t.Name,
		Slug:          t.Slug,
		Status:        string(t.Status),
		Plan:          string(t.Plan),
		Currency:      t.Currency,
		Timezone:      t.Timezone,
		Locale:        t.Locale,
		TrialEndsAt:   t.TrialEndsAt,
		PlanExpiresAt: t.PlanExpiresAt,
		MaxLocations:  limits.MaxLocations,
		MaxUsers:      limits.MaxUsers,
	}
}

// SessionResponse is returned by sign-up, login and refresh
type SessionResponse struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserResponse    `json:"user"`
	Tenant TenantResponse  `json:"tenant"`
}

// MeResponse describes the caller
type MeResponse struct {
	User   UserResponse   `json:"user"`
	Tenant TenantResponse `json:"tenant"`
}

func locationStrings(locs []shared.LocationID) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.String()
	}
	return out
}

func parseLocations(raw []string) ([]shared.LocationID, error) {
	out := make([]shared.LocationID, 0, len(raw))
	for _, r := range raw {
		loc, err := shared.ParseLocationID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}
