package identity

import (
	"slices"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Role        Role
	LocationIDs []shared.LocationID
}

// CanAccessLocation mirrors User.CanAccessLocation for token-derived callers
func (a Actor) CanAccessLocation(loc shared.LocationID) bool {
	if a.Role.CanManage() {
		return true
	}
	return slices.Contains(a.LocationIDs, loc)
}

// RequireLocation returns ErrForbidden when loc is outside the caller's assignments
func (a Actor) RequireLocation(loc shared.LocationID) error {
	if !a.CanAccessLocation(loc) {
		return shared.WrapDomainError(shared.ErrForbidden.Code,
			"No access to location "+loc.String(), shared.ErrForbidden)
	}
	return nil
}

// RequireManager returns ErrForbidden unless the caller is an owner or manager
func (a Actor) RequireManager() error {
	if !a.Role.CanManage() {
		return shared.WrapDomainError(shared.ErrForbidden.Code,
			"Only owners and managers can do this", shared.ErrForbidden)
	}
	return nil
}

// RequireOwner returns ErrForbidden unless the caller is an owner
func (a Actor) RequireOwner() error {
	if a.Role != RoleOwner {
		return shared.WrapDomainError(shared.ErrForbidden.Code,
			"Only owners can do this", shared.ErrForbidden)
	}
	return nil
}
