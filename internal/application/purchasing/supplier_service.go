package purchasing

import (
	"context"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService manages the tenant's supplier directory
type SupplierService struct {
	suppliers purchasing.SupplierRepository
	logger    *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(suppliers purchasing.SupplierRepository, logger *zap.Logger) *SupplierService {
	return &SupplierService{suppliers: suppliers, logger: logger}
}

// Create adds a supplier
func (s *SupplierService) Create(ctx context.Context, actor identity.Actor, req SupplierRequest) (*SupplierResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	supplier, err := purchasing.NewSupplier(actor.TenantID, req.details())
	if err != nil {
		return nil, err
	}
	supplier.SetCreatedBy(actor.UserID)
	if err := s.suppliers.Save(ctx, supplier); err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Get returns one supplier
func (s *SupplierService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List returns suppliers ordered by name
func (s *SupplierService) List(ctx context.Context, actor identity.Actor, page, pageSize int, search string) ([]SupplierResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	filter.Search = search

	suppliers, total, err := s.suppliers.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = ToSupplierResponse(&suppliers[i])
	}
	return out, total, nil
}

// Update replaces a supplier's details
func (s *SupplierService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req SupplierRequest) (*SupplierResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := supplier.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.suppliers.Save(ctx, supplier); err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Deactivate hides a supplier from new orders. Existing orders keep it.
func (s *SupplierService) Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	supplier, err := s.suppliers.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if !supplier.Active {
		return nil
	}
	supplier.Deactivate()
	if err := s.suppliers.Save(ctx, supplier); err != nil {
		return err
	}
	s.logger.Info("supplier deactivated",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("supplier_id", supplier.ID.String()))
	return nil
}
