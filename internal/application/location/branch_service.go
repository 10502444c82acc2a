// Package location manages the branches (outlets) of a tenant.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBranchRequest opens a new branch
type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Code    string `json:"code" binding:"required,max=20"`
	Address string `json:"address" binding:"max=500"`
	Phone   string `json:"phone" binding:"max=50"`
}

// UpdateBranchRequest changes the descriptive fields of a branch
type UpdateBranchRequest struct {
	Name    string `json:"name" binding:"max=100"`
	Address string `json:"address" binding:"max=500"`
	Phone   string `json:"phone" binding:"max=50"`
}

// BranchResponse is a branch as returned by the API
type BranchResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Address    string    `json:"address,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToBranchResponse maps a branch
func ToBranchResponse(b *location.Branch) BranchResponse {
	return BranchResponse{
		ID:         b.ID,
		LocationID: b.LocationID().String(),
		Name:       b.Name,
		Code:       b.Code,
		Address:    b.Address,
		Phone:      b.Phone,
		Active:     b.Active,
		CreatedAt:  b.CreatedAt,
	}
}

// BranchService handles branch operations
type BranchService struct {
	tx       shared.TransactionScope
	tenants  identity.TenantRepository
	branches location.Repository
	shifts   shift.Repository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewBranchService creates a new BranchService
func NewBranchService(
	tx shared.TransactionScope,
	tenants identity.TenantRepository,
	branches location.Repository,
	shifts shift.Repository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *BranchService {
	return &BranchService{
		tx:       tx,
		tenants:  tenants,
		branches: branches,
		shifts:   shifts,
		events:   events,
		logger:   logger,
	}
}

// Create opens a branch within the plan's location limit
func (s *BranchService) Create(ctx context.Context, actor identity.Actor, req CreateBranchRequest) (*BranchResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	var branch *location.Branch
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		if err := s.checkLimit(ctx, actor.TenantID); err != nil {
			return err
		}
		var err error
		if branch, err = location.NewBranch(actor.TenantID, req.Name, req.Code); err != nil {
			return err
		}
		exists, err := s.branches.ExistsByCode(ctx, actor.TenantID, branch.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.WrapDomainError(shared.ErrAlreadyExists.Code,
				"Branch code "+branch.Code+" is already used", shared.ErrAlreadyExists)
		}
		if err := branch.Update(req.Name, req.Address, req.Phone); err != nil {
			return err
		}
		branch.SetCreatedBy(actor.UserID)
		return s.branches.Save(ctx, branch)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, branch)
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// List returns the branches visible to the caller
func (s *BranchService) List(ctx context.Context, actor identity.Actor, includeInactive bool) ([]BranchResponse, error) {
	branches, err := s.branches.FindAll(ctx, actor.TenantID, includeInactive && actor.Role.CanManage())
	if err != nil {
		return nil, err
	}
	out := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		if !actor.CanAccessLocation(branches[i].LocationID()) {
			continue
		}
		out = append(out, ToBranchResponse(&branches[i]))
	}
	return out, nil
}

// Get returns one branch
func (s *BranchService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*BranchResponse, error) {
	branch, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// Update changes name, address and phone
func (s *BranchService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateBranchRequest) (*BranchResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	branch, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := branch.Update(req.Name, req.Address, req.Phone); err != nil {
		return nil, err
	}
	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// Deactivate closes a branch. It is refused while a shift is open there or
// when it is the last active branch.
func (s *BranchService) Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireOwner(); err != nil {
		return err
	}
	var branch *location.Branch
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if branch, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		open, err := s.shifts.CountOpenAtLocation(ctx, actor.TenantID, branch.LocationID())
		if err != nil {
			return err
		}
		if open > 0 {
			return shared.WrapDomainError(shared.ErrInvalidState.Code,
				fmt.Sprintf("Branch %s has %d open shift(s)", branch.Name, open), shared.ErrInvalidState)
		}
		if branch.Active {
			active, err := s.branches.CountActive(ctx, actor.TenantID)
			if err != nil {
				return err
			}
			if active <= 1 {
				return shared.WrapDomainError(shared.ErrInvalidState.Code,
					"The last active branch cannot be deactivated", shared.ErrInvalidState)
			}
		}
		if err := branch.Deactivate(); err != nil {
			return err
		}
		return s.branches.Save(ctx, branch)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, branch)
	logger.L(ctx).Info("branch deactivated",
		zap.String("branch_id", branch.ID.String()),
		zap.String("code", branch.Code))
	return nil
}

// Reactivate reopens a branch within the plan's location limit
func (s *BranchService) Reactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) (*BranchResponse, error) {
	if err := actor.RequireOwner(); err != nil {
		return nil, err
	}
	var branch *location.Branch
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if branch, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if err := s.checkLimit(ctx, actor.TenantID); err != nil {
			return err
		}
		if err := branch.Reactivate(); err != nil {
			return err
		}
		return s.branches.Save(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

func (s *BranchService) checkLimit(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	active, err := s.branches.CountActive(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tenant.CanAddLocation(int(active)) {
		return shared.WrapDomainError(shared.ErrPlanLimitExceeded.Code,
			fmt.Sprintf("Location limit of the current plan reached (%d)", tenant.Limits().MaxLocations), shared.ErrPlanLimitExceeded)
	}
	return nil
}

func (s *BranchService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*location.Branch, error) {
	branch, err := s.branches.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(branch.LocationID()); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *BranchService) publish(ctx context.Context, branch *location.Branch) {
	if err := shared.PublishAndClear(ctx, s.events, branch); err != nil {
		logger.L(ctx).Warn("publish branch events",
			zap.String("branch_id", branch.ID.String()),
			zap.Error(err))
	}
}
