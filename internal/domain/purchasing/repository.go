package purchasing

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows purchase order listings
type OrderFilter struct {
	shared.Filter
	LocationID shared.LocationID
	Status     OrderStatus
	SupplierID *uuid.UUID
}

// OrderRepository persists purchase orders with their lines
type OrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]PurchaseOrder, int64, error)
	FindReferencingItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]PurchaseOrder, error)
	// NextNumber returns the next PO-YYYYMMDD-NNNN number for the tenant and day
	NextNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// SupplierRepository persists suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Supplier, int64, error)
	Save(ctx context.Context, supplier *Supplier) error
}
