package pos

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows sale listings
type Filter struct {
	shared.Filter
	LocationID shared.LocationID
	ShiftID    *uuid.UUID
	Status     Status
	From       *time.Time
	To         *time.Time
}

// Repository persists sales
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SaleOrder, error)
	FindByPaymentRef(ctx context.Context, tenantID uuid.UUID, ref string) (*SaleOrder, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]SaleOrder, int64, error)
	// NextNumber returns the next S-YYYYMMDD-NNNN number for the location and day
	NextNumber(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, day time.Time) (string, error)
	Save(ctx context.Context, order *SaleOrder) error
}
