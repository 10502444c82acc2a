package identity

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is a team member's role inside a tenant
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleManager || r == RoleStaff
}

// CanManage reports whether the role may manage team, menu and purchasing data
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleManager
}

// PasswordHashCost is the bcrypt cost used for new password hashes
var PasswordHashCost = 12

const minPasswordLength = 8

// User is a team member of a tenant
type User struct {
	shared.TenantAggregateRoot
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	LocationIDs  []shared.LocationID
	Active       bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(tenantID uuid.UUID, email, name, password string, role Role) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}

	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		Name:                name,
		Role:                role,
		Active:              true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email address is invalid")
	}
	return email, nil
}

// NormalizeEmail lowercases and validates an email address for lookups
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password cannot exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return shared.WrapDomainError("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Rename changes the display name
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	u.Name = name
	u.IncrementVersion()
	return nil
}

// ChangeRole sets a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	u.Role = role
	u.IncrementVersion()
	return nil
}

// AssignLocations replaces the set of locations a staff member works at
func (u *User) AssignLocations(locations []shared.LocationID) error {
	seen := make([]shared.LocationID, 0, len(locations))
	for _, l := range locations {
		if _, err := shared.ParseLocationID(l.String()); err != nil {
			return err
		}
		if !slices.Contains(seen, l) {
			seen = append(seen, l)
		}
	}
	u.LocationIDs = seen
	u.IncrementVersion()
	return nil
}

// CanAccessLocation reports whether the user may act on data at loc.
// Owners and managers see every location; staff only their assignments.
func (u *User) CanAccessLocation(loc shared.LocationID) bool {
	if u.Role.CanManage() {
		return true
	}
	return slices.Contains(u.LocationIDs, loc)
}

// Deactivate disables sign-in for the user
func (u *User) Deactivate() error {
	if !u.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "User is already deactivated")
	}
	u.Active = false
	u.IncrementVersion()
	u.AddDomainEvent(NewUserDeactivatedEvent(u))
	return nil
}

// RecordLogin stamps the last successful login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.Touch()
}
