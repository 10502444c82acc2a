package location

import (
	"context"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LoadOperational resolves loc to an active branch of the tenant. Unknown
// locations yield shared.ErrNotFound.
func LoadOperational(ctx context.Context, repo Repository, tenantID uuid.UUID, loc shared.LocationID) (*Branch, error) {
	if _, err := loc.BranchID(); err != nil {
		return nil, err
	}
	branch, err := repo.FindByLocationID(ctx, tenantID, loc)
	if err != nil {
		return nil, err
	}
	if err := branch.EnsureOperational(); err != nil {
		return nil, err
	}
	return branch, nil
}
